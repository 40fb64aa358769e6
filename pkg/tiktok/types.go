package tiktok

import "time"

// Token is an OAuth grant issued to a TikTok user.
type Token struct {
	AccessToken  string
	RefreshToken string
	OpenID       string
	Scope        string
	ExpiresAt    time.Time
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	OpenID           string `json:"open_id"`
	Scope            string `json:"scope"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type postInfo struct {
	Title          string `json:"title"`
	PrivacyLevel   string `json:"privacy_level"`
	DisableDuet    *bool  `json:"disable_duet,omitempty"`
	DisableComment *bool  `json:"disable_comment,omitempty"`
	DisableStitch  *bool  `json:"disable_stitch,omitempty"`
}

type sourceInfo struct {
	Source          string   `json:"source"`
	VideoURL        string   `json:"video_url,omitempty"`
	PhotoCoverIndex *int     `json:"photo_cover_index,omitempty"`
	PhotoImages     []string `json:"photo_images,omitempty"`
}

type videoInitRequest struct {
	PostInfo   postInfo   `json:"post_info"`
	SourceInfo sourceInfo `json:"source_info"`
}

type photoInitRequest struct {
	PostInfo   postInfo   `json:"post_info"`
	SourceInfo sourceInfo `json:"source_info"`
	PostMode   string     `json:"post_mode"`
	MediaType  string     `json:"media_type"`
}

type initResponse struct {
	Data struct {
		PublishID string `json:"publish_id"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		LogID   string `json:"log_id"`
	} `json:"error"`
}
