package constants

import "time"

const (
	AppName            = "habitflow"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/habitflow/habitflow.db"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Environment variables
	EnvConfig   = "HABITFLOW_CONFIG"
	EnvTimezone = "HABITFLOW_TIMEZONE"
	EnvDebug    = "HABITFLOW_DEBUG"

	// Document store constants
	HabitsCollection = "habits"
	PostgresSchema   = "habitflow"

	// Session constants
	SessionFileName        = "session.json"
	SessionKeyDisplayName  = "userTag"
	SessionKeyProfileImage = "profileImage"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitflow-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyTimeout          = 2 * time.Second
	NotifierLockfileName   = "habitflow-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.habitflow"
	TrayAppExecutable      = "habitflow-tray"
)
