package bgm

// EncodeScenes builds raw scene tables for fixtures.
var EncodeScenes = encodeScenes
