package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudclip/auth/connect"
	"github.com/cloudclip/auth/enums"
	"github.com/cloudclip/auth/errors"
	"github.com/redis/go-redis/v9"
)

// ChallengeStore holds the single live challenge of each user. Issuing
// overwrites whatever was pending regardless of purpose and consuming is a
// one shot read, so a challenge can never be replayed.
type ChallengeStore interface {
	Issue(ctx context.Context, userID string, purpose enums.ChallengePurpose, value string) error
	Consume(ctx context.Context, userID string, purpose enums.ChallengePurpose) (string, error)
}

type challengeRecord struct {
	Value     string                 `json:"value"`
	Purpose   enums.ChallengePurpose `json:"purpose"`
	CreatedAt time.Time              `json:"created_at"`
}

// Challenge is the redis backed challenge store
type Challenge struct {
	Conn *connect.Connector
	TTL  time.Duration
}

func challengeKey(userID string) string {
	return fmt.Sprintf("challenge:%s", userID)
}

// Issue records value as the single live challenge of the user
func (s *Challenge) Issue(ctx context.Context, userID string, purpose enums.ChallengePurpose, value string) error {
	val, err := json.Marshal(challengeRecord{
		Value:     value,
		Purpose:   purpose,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return s.Conn.R.Challenge.Set(ctx, challengeKey(userID), string(val), s.TTL).Err()
}

// Consume removes and returns the live challenge of the user. The read and
// the delete are a single atomic operation so concurrent consumers observe
// the value at most once.
func (s *Challenge) Consume(ctx context.Context, userID string, purpose enums.ChallengePurpose) (string, error) {
	val, err := s.Conn.R.Challenge.GetDel(ctx, challengeKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", errors.ErrChallengeMissing
		}

		return "", err
	}

	var record challengeRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return "", errors.ErrChallengeMismatch
	}

	if record.Purpose != purpose || record.Value == "" {
		return "", errors.ErrChallengeMismatch
	}

	return record.Value, nil
}
