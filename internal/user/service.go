package user

import (
	"context"
	"errors"

	"github.com/guptaanant682/InfiFeed/internal/db"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrSelfFollow = errors.New("cannot follow yourself")
)

type Service struct {
	db db.Querier
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

const profileColumns = `
	u.id, u.username, u.role, u.bio, u.avatar_url,
	(SELECT COUNT(*) FROM follows f WHERE f.following_id = u.id),
	u.created_at
`

func (s *Service) GetProfile(ctx context.Context, userID string) (Profile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM users u WHERE u.id = $1
	`, userID)
	var p Profile
	if err := row.Scan(&p.ID, &p.Username, &p.Role, &p.Bio, &p.AvatarURL, &p.FollowerCount, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

// FindByUsername resolves a username case-insensitively.
func (s *Service) FindByUsername(ctx context.Context, username string) (Profile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM users u WHERE LOWER(u.username) = LOWER($1)
	`, username)
	var p Profile
	if err := row.Scan(&p.ID, &p.Username, &p.Role, &p.Bio, &p.AvatarURL, &p.FollowerCount, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

func (s *Service) ListCelebrities(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+profileColumns+`
		FROM users u WHERE u.role = $1
		ORDER BY u.username
	`, RoleCelebrity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

// Follow records the edge once; repeating it is a no-op so retried requests
// stay idempotent.
func (s *Service) Follow(ctx context.Context, followerID, followingID string) error {
	if followerID == followingID {
		return ErrSelfFollow
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO follows (follower_id, following_id)
		VALUES ($1,$2)
		ON CONFLICT (follower_id, following_id) DO NOTHING
	`, followerID, followingID)
	return err
}

func (s *Service) Unfollow(ctx context.Context, followerID, followingID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM follows WHERE follower_id=$1 AND following_id=$2
	`, followerID, followingID)
	return err
}

func (s *Service) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM follows WHERE follower_id=$1 AND following_id=$2
		)
	`, followerID, followingID).Scan(&ok)
	return ok, err
}

// Followers and Following read the same edge table from opposite sides, so
// the two views can never disagree.
func (s *Service) Followers(ctx context.Context, userID string) ([]Profile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+profileColumns+`
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.following_id = $1
		ORDER BY u.username
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

func (s *Service) Following(ctx context.Context, userID string) ([]Profile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+profileColumns+`
		FROM follows f
		JOIN users u ON u.id = f.following_id
		WHERE f.follower_id = $1
		ORDER BY u.username
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

// FollowingIDs is the follow set used for feed assembly.
func (s *Service) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT following_id FROM follows WHERE follower_id=$1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FollowerIDs is used by the notification generator to fan a post out to
// the author's audience.
func (s *Service) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT follower_id FROM follows WHERE following_id=$1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func scanProfiles(rows pgx.Rows) ([]Profile, error) {
	var profiles []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.Role, &p.Bio, &p.AvatarURL, &p.FollowerCount, &p.CreatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
