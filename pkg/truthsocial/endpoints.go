package truthsocial

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the vendor API root.
	DefaultBaseURL = "https://truthsocial.com/api"

	// StatusesEndpoint creates statuses.
	StatusesEndpoint = "/v1/statuses"

	// MediaEndpoint uploads media attachments.
	MediaEndpoint = "/v1/media"

	// TrendsEndpoint lists trending tags.
	TrendsEndpoint = "/v1/trends"

	// TrendingTruthsEndpoint lists trending statuses.
	TrendingTruthsEndpoint = "/v1/truth/trending/truths"

	// SuggestionsEndpoint lists suggested accounts.
	SuggestionsEndpoint = "/v2/suggestions"

	// VerifyCredentialsEndpoint returns the account behind the token.
	VerifyCredentialsEndpoint = "/v1/accounts/verify_credentials"

	// DefaultPageSize is the default number of items to request per page.
	DefaultPageSize = 40

	// MaxPageSize is the largest page the vendor will return.
	MaxPageSize = 80
)

// MediaStatusEndpoint returns the status path for an uploaded attachment.
func MediaStatusEndpoint(mediaID string) string {
	return fmt.Sprintf("%s/%s", MediaEndpoint, mediaID)
}

// StatusEndpoint returns the path for a single status.
func StatusEndpoint(statusID string) string {
	return fmt.Sprintf("%s/%s", StatusesEndpoint, statusID)
}

// AccountStatusesEndpoint returns the path for an account's statuses.
func AccountStatusesEndpoint(accountID string) string {
	return fmt.Sprintf("/v1/accounts/%s/statuses", accountID)
}

// FollowersEndpoint returns the path for an account's followers.
func FollowersEndpoint(accountID string) string {
	return fmt.Sprintf("/v1/accounts/%s/followers", accountID)
}

// FollowingEndpoint returns the path for the accounts a user follows.
func FollowingEndpoint(accountID string) string {
	return fmt.Sprintf("/v1/accounts/%s/following", accountID)
}

// CommentsEndpoint returns the path for a status' descendant comments.
func CommentsEndpoint(statusID string) string {
	return fmt.Sprintf("/v2/statuses/%s/context/descendants", statusID)
}

// LikersEndpoint returns the path for the accounts that liked a status.
func LikersEndpoint(statusID string) string {
	return fmt.Sprintf("/v1/statuses/%s/favourited_by", statusID)
}

// GroupPostsEndpoint returns the path for a group's timeline.
func GroupPostsEndpoint(groupID string) string {
	return fmt.Sprintf("/v1/timelines/group/%s", groupID)
}

// LookupEndpoint resolves a handle to an account.
func LookupEndpoint() string {
	return "/v1/accounts/lookup"
}

// PageQuery builds the pagination query for a cursor-based collection.
// An empty cursor means start of collection.
func PageQuery(cursor string, limit int) url.Values {
	if limit <= 0 {
		limit = DefaultPageSize
	} else if limit > MaxPageSize {
		limit = MaxPageSize
	}

	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", limit))
	if cursor != "" {
		q.Set("max_id", cursor)
	}
	return q
}

// SanitizeHandle strips decoration from a user handle.
func SanitizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	handle = strings.TrimPrefix(handle, "@")
	return strings.TrimSuffix(handle, "/")
}
