package bgm_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"singalong/internal/bgm"
	"singalong/internal/hostproc"
	"singalong/internal/memscan"
)

func scenesWith(slots map[int]bgm.Scene) []bgm.Scene {
	scenes := make([]bgm.Scene, bgm.SceneCount)
	for i := range scenes {
		scenes[i].Index = i
	}
	for idx, s := range slots {
		s.Index = idx
		scenes[idx] = s
	}
	return scenes
}

func TestSelectActive(t *testing.T) {
	tests := []struct {
		name  string
		slots map[int]bgm.Scene
		want  uint16
	}{
		{name: "empty table", want: 0},
		{
			name:  "first referenced wins",
			slots: map[int]bgm.Scene{2: {Reference: 1, TrackID: 300}, 5: {Reference: 1, TrackID: 500}},
			want:  300,
		},
		{
			name:  "unreferenced slot skipped",
			slots: map[int]bgm.Scene{0: {Reference: 0, TrackID: 111}, 3: {Reference: 4, TrackID: 222}},
			want:  222,
		},
		{
			name:  "silence skipped",
			slots: map[int]bgm.Scene{0: {Reference: 1, TrackID: bgm.SilenceTrackID}, 1: {Reference: 1, TrackID: 42}},
			want:  42,
		},
		{
			name:  "zero track skipped",
			slots: map[int]bgm.Scene{0: {Reference: 1, TrackID: 0}, 11: {Reference: 1, TrackID: 9}},
			want:  9,
		},
		{
			name:  "only silence",
			slots: map[int]bgm.Scene{4: {Reference: 1, TrackID: bgm.SilenceTrackID}},
			want:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bgm.SelectActive(scenesWith(tt.slots)); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestDecodeScenesLayout(t *testing.T) {
	raw := make([]byte, bgm.SceneCount*bgm.SceneSize)
	rec := raw[3*bgm.SceneSize:]
	binary.LittleEndian.PutUint32(rec[0:], 7)
	binary.LittleEndian.PutUint16(rec[12:], 2)
	binary.LittleEndian.PutUint16(rec[14:], 0x1234)
	binary.LittleEndian.PutUint16(rec[16:], 0x0042)
	rec[18] = 1

	scenes, err := bgm.DecodeScenes(raw)
	if err != nil {
		t.Fatalf("DecodeScenes returned error: %v", err)
	}
	got := scenes[3]
	if got.Index != 3 || got.SceneIndex != 7 || got.Reference != 2 || got.TrackID != 0x1234 || got.PreviousTrackID != 0x42 || !got.TimerEnabled {
		t.Fatalf("unexpected scene %+v", got)
	}
	if _, err := bgm.DecodeScenes(raw[:10]); err == nil {
		t.Fatal("expected size error")
	}
}

func TestEncodeDecodeScenes(t *testing.T) {
	want := scenesWith(map[int]bgm.Scene{1: {SceneIndex: 1, Flags: -1, Reference: 3, TrackID: 77, Timer: 1.5, TimerEnabled: true}})
	got, err := bgm.DecodeScenes(bgm.EncodeScenes(want))
	if err != nil {
		t.Fatalf("DecodeScenes returned error: %v", err)
	}
	if got[1] != want[1] {
		t.Fatalf("expected %+v, got %+v", want[1], got[1])
	}
}

const (
	slotAddr    = 0x140100000
	managerAddr = 0x20000000
	listAddr    = 0x30000000
	musicAddr   = 0x40000000
)

func ptr(v uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, v)
	return out
}

func liveSnapshot(track uint16, streaming bool) *hostproc.Snapshot {
	manager := make([]byte, 0xC8)
	copy(manager[0xC0:], ptr(listAddr))
	music := make([]byte, 64)
	if streaming {
		music[50] = 1
	}
	return hostproc.NewSnapshot(
		hostproc.Region{Addr: slotAddr, Data: ptr(managerAddr)},
		hostproc.Region{Addr: managerAddr, Data: manager},
		hostproc.Region{Addr: listAddr, Data: bgm.EncodeScenes(scenesWith(map[int]bgm.Scene{0: {Reference: 1, TrackID: track}}))},
		hostproc.Region{Addr: musicAddr, Data: music},
	)
}

func liveAddresses() bgm.Addresses {
	return bgm.Addresses{SceneManager: slotAddr, SceneListOffset: 0xC0, MusicManager: musicAddr, StreamingFlagOffset: 50}
}

func TestReaderReadActiveTrack(t *testing.T) {
	r := bgm.NewReader(liveSnapshot(112, true), liveAddresses())
	reading, err := r.ReadActiveTrack()
	if err != nil {
		t.Fatalf("ReadActiveTrack returned error: %v", err)
	}
	if reading.TrackID != 112 || !reading.Streaming || len(reading.Scenes) != bgm.SceneCount {
		t.Fatalf("unexpected reading %+v", reading)
	}
}

func TestReaderNullChainIsRoutine(t *testing.T) {
	snap := liveSnapshot(112, false)
	snap.Put(slotAddr, ptr(0))
	reading, err := bgm.NewReader(snap, liveAddresses()).ReadActiveTrack()
	if err != nil || reading.TrackID != 0 {
		t.Fatalf("expected silent reading for null manager, got %+v %v", reading, err)
	}

	snap = liveSnapshot(112, false)
	snap.Put(managerAddr, make([]byte, 0xC8))
	reading, err = bgm.NewReader(snap, liveAddresses()).ReadActiveTrack()
	if err != nil || reading.TrackID != 0 || reading.Scenes != nil {
		t.Fatalf("expected silent reading for null list, got %+v %v", reading, err)
	}
}

func TestReaderUnresolvedBase(t *testing.T) {
	reading, err := bgm.NewReader(liveSnapshot(5, true), bgm.Addresses{}).ReadActiveTrack()
	if err != nil || reading.TrackID != 0 || reading.Streaming {
		t.Fatalf("expected empty reading, got %+v %v", reading, err)
	}
}

func TestReaderReadFailureIsError(t *testing.T) {
	snap := liveSnapshot(5, false)
	snap.Put(managerAddr, append(make([]byte, 0xC0), ptr(0x50000000)...))
	if _, err := bgm.NewReader(snap, liveAddresses()).ReadActiveTrack(); err == nil {
		t.Fatal("expected error reading unmapped scene list")
	}
}

func TestReaderStreamingUnresolved(t *testing.T) {
	addrs := liveAddresses()
	addrs.MusicManager = memscan.Unresolved
	reading, err := bgm.NewReader(liveSnapshot(5, true), addrs).ReadActiveTrack()
	if err != nil || reading.Streaming {
		t.Fatalf("expected streaming false, got %+v %v", reading, err)
	}
}

func TestUnavailable(t *testing.T) {
	reading, err := bgm.Unavailable{}.ReadActiveTrack()
	if err != nil || reading.TrackID != 0 {
		t.Fatalf("unexpected %+v %v", reading, err)
	}
}

func rel32(v int32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, uint32(v))
	return out
}

func TestResolve(t *testing.T) {
	const base = 0x140000000
	text := make([]byte, 0x200)
	// mov rax, [rip+disp] at 0x10 pointing to slot 0x140100000.
	scene := append([]byte{0x48, 0x8B, 0x05}, rel32(int32(slotAddr-(base+0x17)))...)
	copy(text[0x10:], append(scene, 0x48, 0x85, 0xC0, 0x74, 0x51, 0x83, 0x78, 0x08, 0x0B))
	// mov rcx, [rdi+0x1A0] at 0x40.
	copy(text[0x40:], append(append([]byte{0x48, 0x8B, 0x8F}, rel32(0x1A0)...), 0x85, 0xC0, 0x0F, 0x95, 0xC2))
	// mov rcx, [rip+disp] at 0x80 pointing to framework slot base+0x180.
	copy(text[0x80:], append(append([]byte{0x48, 0x8B, 0x0D}, rel32(0x180-0x87)...), 0xCC, 0xCC))
	resolver := memscan.NewResolver(&memscan.Image{Base: base, Data: text})

	const frameworkAddr = 0x50000000
	framework := make([]byte, 0x1A8)
	copy(framework[0x1A0:], ptr(musicAddr))
	snap := hostproc.NewSnapshot(
		hostproc.Region{Addr: base + 0x180, Data: ptr(frameworkAddr)},
		hostproc.Region{Addr: frameworkAddr, Data: framework},
	)

	sigs := bgm.Signatures{
		SceneManager: "48 8B 05 ?? ?? ?? ?? 48 85 C0 74 51 83 78 08 0B",
		MusicManager: "48 8B 8F ?? ?? ?? ?? 85 C0 0F 95 C2",
		Framework:    "48 8B 0D ?? ?? ?? ?? CC CC",
	}
	addrs, errs := bgm.Resolve(resolver, snap, sigs)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors %v", errs)
	}
	if addrs.SceneManager != slotAddr || addrs.MusicManager != musicAddr {
		t.Fatalf("unexpected addresses %+v", addrs)
	}
	if addrs.SceneListOffset != 0xC0 || addrs.StreamingFlagOffset != 50 {
		t.Fatalf("expected default offsets, got %+v", addrs)
	}

	sigs.Framework = ""
	addrs, errs = bgm.Resolve(resolver, snap, sigs)
	if len(errs) != 1 || !bgm.IsOptional(errs[0]) {
		t.Fatalf("expected one optional error, got %v", errs)
	}
	if !addrs.Resolved() || addrs.MusicManager != memscan.Unresolved {
		t.Fatalf("unexpected addresses %+v", addrs)
	}

	sigs.SceneManager = "DE AD BE EF ?? ?? ?? ??"
	addrs, errs = bgm.Resolve(resolver, snap, sigs)
	if addrs.Resolved() || len(errs) != 2 || !errors.Is(errs[0], memscan.ErrNotFound) {
		t.Fatalf("expected unresolved scene manager, got %+v %v", addrs, errs)
	}
}
