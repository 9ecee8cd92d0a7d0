package bgm

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// SceneCount is the number of slots in the host's scene table.
	SceneCount = 12
	// SceneSize is the byte size of one slot record.
	SceneSize = 0x60
	// SilenceTrackID marks a slot that deliberately plays nothing.
	SilenceTrackID = 9999
)

// Scene is a decoded copy of one slot. Fields past Timer are not decoded.
type Scene struct {
	Index           int
	SceneIndex      int32
	Flags           int32
	Reference       uint16
	TrackID         uint16
	PreviousTrackID uint16
	TimerEnabled    bool
	Timer           float32
}

// Active reports whether the slot contributes a playable track.
func (s Scene) Active() bool {
	return s.Reference != 0 && s.TrackID != 0 && s.TrackID != SilenceTrackID
}

// DecodeScenes decodes exactly SceneCount little-endian records.
func DecodeScenes(raw []byte) ([]Scene, error) {
	if len(raw) != SceneCount*SceneSize {
		return nil, fmt.Errorf("scene table: expected %d bytes, got %d", SceneCount*SceneSize, len(raw))
	}
	scenes := make([]Scene, SceneCount)
	for i := range scenes {
		rec := raw[i*SceneSize : (i+1)*SceneSize]
		scenes[i] = Scene{
			Index:           i,
			SceneIndex:      int32(binary.LittleEndian.Uint32(rec[0:])),
			Flags:           int32(binary.LittleEndian.Uint32(rec[4:])),
			Reference:       binary.LittleEndian.Uint16(rec[12:]),
			TrackID:         binary.LittleEndian.Uint16(rec[14:]),
			PreviousTrackID: binary.LittleEndian.Uint16(rec[16:]),
			TimerEnabled:    rec[18] != 0,
			Timer:           math.Float32frombits(binary.LittleEndian.Uint32(rec[20:])),
		}
	}
	return scenes, nil
}

// encodeScenes is the inverse of DecodeScenes for the decoded fields.
func encodeScenes(scenes []Scene) []byte {
	raw := make([]byte, SceneCount*SceneSize)
	for i, s := range scenes {
		if i >= SceneCount {
			break
		}
		rec := raw[i*SceneSize : (i+1)*SceneSize]
		binary.LittleEndian.PutUint32(rec[0:], uint32(s.SceneIndex))
		binary.LittleEndian.PutUint32(rec[4:], uint32(s.Flags))
		binary.LittleEndian.PutUint16(rec[12:], s.Reference)
		binary.LittleEndian.PutUint16(rec[14:], s.TrackID)
		binary.LittleEndian.PutUint16(rec[16:], s.PreviousTrackID)
		if s.TimerEnabled {
			rec[18] = 1
		}
		binary.LittleEndian.PutUint32(rec[20:], math.Float32bits(s.Timer))
	}
	return raw
}

// SelectActive returns the track of the first active slot, or 0.
func SelectActive(scenes []Scene) uint16 {
	for _, s := range scenes {
		if s.Reference == 0 {
			continue
		}
		if s.Active() {
			return s.TrackID
		}
	}
	return 0
}
