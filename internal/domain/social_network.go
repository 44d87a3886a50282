package domain

// TelegramChannel is a connected Telegram channel
type TelegramChannel struct {
	ID              int64  `json:"id"`
	OrganizationID  int64  `json:"organization_id"`
	ChannelUsername string `json:"tg_channel_username"`
	Autoselect      bool   `json:"autoselect"`
}

// SocialAccount is a connected account of a network without a bot integration yet
type SocialAccount struct {
	ID             int64 `json:"id"`
	OrganizationID int64 `json:"organization_id"`
	Autoselect     bool  `json:"autoselect"`
}

// SocialNetworks groups the connected networks of an organization
type SocialNetworks struct {
	Telegram  []TelegramChannel `json:"telegram"`
	Vkontakte []SocialAccount   `json:"vkontakte"`
	Youtube   []SocialAccount   `json:"youtube"`
	Instagram []SocialAccount   `json:"instagram"`
}

// Connected reports whether the named network has at least one connection
func (s *SocialNetworks) Connected(network string) bool {
	switch network {
	case NetworkTelegram:
		return len(s.Telegram) > 0
	case NetworkVkontakte:
		return len(s.Vkontakte) > 0
	case NetworkYoutube:
		return len(s.Youtube) > 0
	case NetworkInstagram:
		return len(s.Instagram) > 0
	}
	return false
}

// Autoselected reports whether the named network should be pre-checked when publishing
func (s *SocialNetworks) Autoselected(network string) bool {
	switch network {
	case NetworkTelegram:
		return len(s.Telegram) > 0 && s.Telegram[0].Autoselect
	case NetworkVkontakte:
		return len(s.Vkontakte) > 0 && s.Vkontakte[0].Autoselect
	case NetworkYoutube:
		return len(s.Youtube) > 0 && s.Youtube[0].Autoselect
	case NetworkInstagram:
		return len(s.Instagram) > 0 && s.Instagram[0].Autoselect
	}
	return false
}
