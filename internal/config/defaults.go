package config

const (
	defaultLyricsDir           = "~/.local/share/singalong/lyrics"
	defaultLogDir              = "~/.local/share/singalong/logs"
	defaultHistoryDB           = "~/.local/share/singalong/history.db"
	defaultProcessName         = "ffxiv_dx11.exe"
	defaultModuleName          = "ffxiv_dx11.exe"
	defaultSceneManagerSig     = "48 8B 05 ?? ?? ?? ?? 48 85 C0 74 51 83 78 08 0B"
	defaultMusicManagerSig     = "48 8B 8F ?? ?? ?? ?? 85 C0 0F 95 C2 E8 ?? ?? ?? ?? 48 8B 9F"
	defaultSceneListOffset     = 0xC0
	defaultStreamingFlagOffset = 50
	defaultPollIntervalMs      = 100
	defaultSyncOffsetMs        = 650
	defaultLyricsExtension     = "lrc"
	defaultNotificationBuffer  = 16
	defaultShutdownTimeoutMs   = 2000
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LyricsDir: defaultLyricsDir,
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Host: Host{
			ProcessName: defaultProcessName,
			ModuleName:  defaultModuleName,
		},
		Signatures: Signatures{
			SceneManager:        defaultSceneManagerSig,
			SceneListOffset:     defaultSceneListOffset,
			MusicManager:        defaultMusicManagerSig,
			StreamingFlagOffset: defaultStreamingFlagOffset,
		},
		Sync: Sync{
			PollIntervalMs:     defaultPollIntervalMs,
			OffsetMs:           defaultSyncOffsetMs,
			LyricsExtension:    defaultLyricsExtension,
			NotificationBuffer: defaultNotificationBuffer,
			ShutdownTimeoutMs:  defaultShutdownTimeoutMs,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
