package consts

const (
	MimePrefixImage = "image"
)

const (
	DefaultAvatarURL = "default_avatar.png"
	AvatarPrefix     = "avatar/"
	MaxAvatarSize    = 5 << 20
)

// 实时事件名，客户端依赖这些字面量
const (
	EventGetOnlineUsers  = "getOnlineUsers"
	EventNewRequest      = "newRequest"
	EventRequestAccepted = "requestAccepted"
	EventNewMessage      = "newMessage"
)

// 握手参数中视为匿名的取值
const (
	AnonymousUndefined = "undefined"
	AnonymousNull      = "null"
)
