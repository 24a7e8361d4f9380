package security

import (
	"errors"
	"time"
)

// ContentLinkClaims binds a short lived file link to one user and one item.
type ContentLinkClaims struct {
	UserID    string `json:"uid"`
	ItemID    string `json:"item"`
	ExpiresAt int64  `json:"exp"`
}

// ExpiresTime returns the expiry as a time.
func (c *ContentLinkClaims) ExpiresTime() time.Time {
	return time.Unix(c.ExpiresAt, 0).UTC()
}

func IssueContentLinkToken(userID, itemID string, ttl time.Duration, secret string, now time.Time) (string, error) {
	if userID == "" || itemID == "" {
		return "", errors.New("user id and item id are required")
	}
	key, err := DeriveKey(secret, purposeContentLink)
	if err != nil {
		return "", err
	}
	return sign(ContentLinkClaims{UserID: userID, ItemID: itemID, ExpiresAt: now.Add(ttl).Unix()}, key)
}

// VerifyContentLinkToken validates the token and that it was issued for itemID.
func VerifyContentLinkToken(token, itemID, secret string, now time.Time) (*ContentLinkClaims, error) {
	key, err := DeriveKey(secret, purposeContentLink)
	if err != nil {
		return nil, err
	}
	var claims ContentLinkClaims
	if err := verify(token, key, &claims); err != nil {
		return nil, err
	}
	if claims.ItemID != itemID || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if now.Unix() > claims.ExpiresAt {
		return nil, ErrTokenExpired
	}
	return &claims, nil
}
