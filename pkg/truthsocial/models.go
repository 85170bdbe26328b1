package truthsocial

import "time"

// Account represents a user account on the platform.
type Account struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"display_name"`
	URL            string    `json:"url"`
	CreatedAt      time.Time `json:"created_at"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	StatusesCount  int       `json:"statuses_count"`
}

// ItemID implements the paginator item contract.
func (a Account) ItemID() string { return a.ID }

// ItemCreatedAt implements the paginator item contract.
func (a Account) ItemCreatedAt() time.Time { return a.CreatedAt }

// Status represents a post on the platform.
type Status struct {
	ID               string       `json:"id"`
	CreatedAt        time.Time    `json:"created_at"`
	Content          string       `json:"content"`
	Visibility       string       `json:"visibility"`
	URL              string       `json:"url"`
	InReplyToID      string       `json:"in_reply_to_id"`
	QuoteID          string       `json:"quote_id"`
	Account          Account      `json:"account"`
	MediaAttachments []Media      `json:"media_attachments"`
	Tags             []Tag        `json:"tags"`
	RepliesCount     int          `json:"replies_count"`
	ReblogsCount     int          `json:"reblogs_count"`
	FavouritesCount  int          `json:"favourites_count"`
	Application      *Application `json:"application,omitempty"`
}

func (s Status) ItemID() string { return s.ID }

func (s Status) ItemCreatedAt() time.Time { return s.CreatedAt }

// Application identifies the client that created a status.
type Application struct {
	Name string `json:"name"`
}

// Media represents an uploaded media attachment. ProcessingState mirrors
// the vendor's media state: empty or "processed" means the asset is usable,
// anything else means processing is still underway or has failed.
type Media struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	URL             string `json:"url"`
	PreviewURL      string `json:"preview_url"`
	TextURL         string `json:"text_url"`
	ProcessingState string `json:"processing,omitempty"`
	ErrorMessage    string `json:"error_message,omitempty"`
}

// Ready reports whether the attachment finished processing and can be
// referenced by a status submission.
func (m Media) Ready() bool {
	if m.URL != "" {
		return true
	}
	return m.ProcessingState == "processed" || m.ProcessingState == "complete"
}

// Failed reports whether the vendor rejected the attachment.
func (m Media) Failed() bool {
	return m.ProcessingState == "failed" || m.ProcessingState == "error"
}

// Tag represents a hashtag, optionally with usage history when returned
// from the trending endpoint.
type Tag struct {
	Name    string       `json:"name"`
	URL     string       `json:"url"`
	History []TagHistory `json:"history,omitempty"`
}

// TagHistory is one day of usage counts for a tag. The vendor sends the
// numbers as strings.
type TagHistory struct {
	Day      string `json:"day"`
	Uses     string `json:"uses"`
	Accounts string `json:"accounts"`
}

// ItemID implements the paginator item contract. Tags have no numeric ID;
// the name is unique.
func (t Tag) ItemID() string { return t.Name }

// ItemCreatedAt implements the paginator item contract. Trending tags carry
// no timestamp, so date cutoffs never exclude them.
func (t Tag) ItemCreatedAt() time.Time { return time.Time{} }

// Group represents a group a status can be posted into.
type Group struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
	MembersCount int       `json:"members_count"`
}

func (g Group) ItemID() string { return g.ID }

func (g Group) ItemCreatedAt() time.Time { return g.CreatedAt }

// StatusRequest is the payload for creating a status. Field names follow
// the vendor API.
type StatusRequest struct {
	Status               string   `json:"status"`
	MediaIDs             []string `json:"media_ids,omitempty"`
	Visibility           string   `json:"visibility"`
	ContentType          string   `json:"content_type,omitempty"`
	InReplyToID          string   `json:"in_reply_to_id,omitempty"`
	QuoteID              string   `json:"quote_id,omitempty"`
	Poll                 *Poll    `json:"poll,omitempty"`
	GroupTimelineVisible bool     `json:"group_timeline_visible,omitempty"`
	GroupID              string   `json:"group_id,omitempty"`
}

// Poll is an optional poll attached to a status.
type Poll struct {
	Options    []string `json:"options"`
	ExpiresIn  int      `json:"expires_in"`
	Multiple   bool     `json:"multiple,omitempty"`
	HideTotals bool     `json:"hide_totals,omitempty"`
}
