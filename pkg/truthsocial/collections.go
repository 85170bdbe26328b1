package truthsocial

import (
	"context"
	"net/url"
)

// Collection fetchers return one page of items plus the cursor for the next
// page. The cursor is the tail item's ID (max_id pagination); an empty
// cursor from the caller means start of collection, and an unchanged cursor
// means the collection is exhausted.

// AccountStatuses fetches one page of an account's statuses.
func (s *Session) AccountStatuses(ctx context.Context, accountID, cursor string, limit int) ([]Status, string, error) {
	return s.statusPage(ctx, AccountStatusesEndpoint(accountID), cursor, limit)
}

// Comments fetches one page of a status' descendant comments.
func (s *Session) Comments(ctx context.Context, statusID, cursor string, limit int) ([]Status, string, error) {
	return s.statusPage(ctx, CommentsEndpoint(statusID), cursor, limit)
}

// GroupPosts fetches one page of a group's timeline.
func (s *Session) GroupPosts(ctx context.Context, groupID, cursor string, limit int) ([]Status, string, error) {
	return s.statusPage(ctx, GroupPostsEndpoint(groupID), cursor, limit)
}

// TrendingTruths fetches one page of trending statuses.
func (s *Session) TrendingTruths(ctx context.Context, cursor string, limit int) ([]Status, string, error) {
	return s.statusPage(ctx, TrendingTruthsEndpoint, cursor, limit)
}

func (s *Session) statusPage(ctx context.Context, path, cursor string, limit int) ([]Status, string, error) {
	var items []Status
	if err := s.GetJSON(ctx, path, PageQuery(cursor, limit), &items); err != nil {
		return nil, cursor, err
	}
	return items, nextCursorStatuses(items, cursor), nil
}

// Followers fetches one page of an account's followers.
func (s *Session) Followers(ctx context.Context, accountID, cursor string, limit int) ([]Account, string, error) {
	return s.accountPage(ctx, FollowersEndpoint(accountID), cursor, limit)
}

// Following fetches one page of the accounts a user follows.
func (s *Session) Following(ctx context.Context, accountID, cursor string, limit int) ([]Account, string, error) {
	return s.accountPage(ctx, FollowingEndpoint(accountID), cursor, limit)
}

// Likers fetches one page of the accounts that liked a status.
func (s *Session) Likers(ctx context.Context, statusID, cursor string, limit int) ([]Account, string, error) {
	return s.accountPage(ctx, LikersEndpoint(statusID), cursor, limit)
}

func (s *Session) accountPage(ctx context.Context, path, cursor string, limit int) ([]Account, string, error) {
	var items []Account
	if err := s.GetJSON(ctx, path, PageQuery(cursor, limit), &items); err != nil {
		return nil, cursor, err
	}
	return items, nextCursorAccounts(items, cursor), nil
}

// TrendingTags fetches the current trending tags. The endpoint is not
// cursor-paginated; it returns a single page.
func (s *Session) TrendingTags(ctx context.Context, limit int) ([]Tag, error) {
	q := url.Values{}
	if limit > 0 {
		q = PageQuery("", limit)
	}
	var tags []Tag
	if err := s.GetJSON(ctx, TrendsEndpoint, q, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// SuggestedAccounts fetches accounts the vendor recommends following.
func (s *Session) SuggestedAccounts(ctx context.Context, limit int) ([]Account, error) {
	var wrapped []struct {
		Account Account `json:"account"`
	}
	if err := s.GetJSON(ctx, SuggestionsEndpoint, PageQuery("", limit), &wrapped); err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(wrapped))
	for _, w := range wrapped {
		accounts = append(accounts, w.Account)
	}
	return accounts, nil
}

// VerifyCredentials returns the account behind the session token.
func (s *Session) VerifyCredentials(ctx context.Context) (*Account, error) {
	var account Account
	if err := s.GetJSON(ctx, VerifyCredentialsEndpoint, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Lookup resolves a user handle to an account.
func (s *Session) Lookup(ctx context.Context, handle string) (*Account, error) {
	q := url.Values{}
	q.Set("acct", SanitizeHandle(handle))

	var account Account
	if err := s.GetJSON(ctx, LookupEndpoint(), q, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// nextCursorStatuses returns the tail item's ID, or the previous cursor
// unchanged when the page is empty so the paginator sees no progress.
func nextCursorStatuses(items []Status, prev string) string {
	if len(items) == 0 {
		return prev
	}
	return items[len(items)-1].ID
}

func nextCursorAccounts(items []Account, prev string) string {
	if len(items) == 0 {
		return prev
	}
	return items[len(items)-1].ID
}
