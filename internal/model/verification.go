package model

// VerificationPurpose 验证码用途
const (
	PurposeRegister      = "register"
	PurposePasswordReset = "password-reset"
)

// VerificationEntry 验证码缓存条目
// 注册流程额外携带待建账号的字段；存储 TTL 只是兜底，
// 消费时必须重新校验 ExpiresAt
type VerificationEntry struct {
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"` // 已哈希，仅注册流程使用
	Username  string `json:"username,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expiresAt"` // 毫秒时间戳
}
