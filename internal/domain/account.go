package domain

// Tokens is the credential pair issued by the accounts service
type Tokens struct {
	AccountID    int64  `json:"account_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResult is returned by a credentials login; 2FA accounts get no tokens until verified
type LoginResult struct {
	Tokens
	Is2FA bool `json:"is_two_fa"`
}

// TwoFASetup is the secret material for enabling two-factor authentication
type TwoFASetup struct {
	Secret     string `json:"two_fa_key"`
	QRImageURL string `json:"qr_image_url"`
}
