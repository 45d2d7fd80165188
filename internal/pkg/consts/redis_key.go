package consts

const (
	TokenBlacklistKey = "auth:token:blacklist:"
	UserSimpleInfoKey = "user:simple:info:"
)

const (
	PendingReminderLock = "lock:chat:pending:reminder"
)
