package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return r.s.write(ctx, func(d *tables) error {
		user.Email = strings.ToLower(user.Email)
		for _, u := range d.users.rows {
			if u.Email == user.Email {
				return gorm.ErrDuplicatedKey
			}
		}
		now := r.s.now()
		user.ID = d.users.nextID()
		user.CreatedAt, user.UpdatedAt = now, now
		if user.Role == "" {
			user.Role = "MEMBER"
		}
		d.users.rows[user.ID] = *user
		return nil
	})
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var out *models.User
	err := r.s.read(ctx, func(d *tables) error {
		u, ok := d.users.rows[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var out *models.User
	err := r.s.read(ctx, func(d *tables) error {
		email = strings.ToLower(email)
		for _, u := range d.users.rows {
			if u.Email == email {
				out = &u
				return nil
			}
		}
		return gorm.ErrRecordNotFound
	})
	return out, err
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	return r.s.write(ctx, func(d *tables) error {
		if _, ok := d.users.rows[user.ID]; !ok {
			return gorm.ErrRecordNotFound
		}
		user.Email = strings.ToLower(user.Email)
		for id, u := range d.users.rows {
			if id != user.ID && u.Email == user.Email {
				return gorm.ErrDuplicatedKey
			}
		}
		user.UpdatedAt = r.s.now()
		d.users.rows[user.ID] = *user
		return nil
	})
}

func (r *userRepo) Delete(ctx context.Context, id uint) error {
	return r.s.write(ctx, func(d *tables) error {
		delete(d.users.rows, id)
		return nil
	})
}

func (r *userRepo) List(ctx context.Context, filter repositories.UserFilter, offset, limit int) ([]*models.User, int64, error) {
	var out []*models.User
	err := r.s.read(ctx, func(d *tables) error {
		search := strings.ToLower(filter.Search)
		for _, u := range d.users.ordered() {
			if filter.Role != "" && u.Role != filter.Role {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(u.Name), search) && !strings.Contains(u.Email, search) {
				continue
			}
			out = append(out, &u)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	return paginate(out, offset, limit), total, nil
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *userRepo) CountByRole(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	err := r.s.read(ctx, func(d *tables) error {
		for _, u := range d.users.rows {
			counts[u.Role]++
		}
		return nil
	})
	return counts, err
}

type refreshTokenRepo struct{ s *Store }

func (r *refreshTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	return r.s.write(ctx, func(d *tables) error {
		token.ID = d.tokens.nextID()
		token.CreatedAt = r.s.now()
		d.tokens.rows[token.ID] = *token
		return nil
	})
}

func (r *refreshTokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var out *models.RefreshToken
	err := r.s.read(ctx, func(d *tables) error {
		for _, t := range d.tokens.rows {
			if t.TokenHash == tokenHash {
				out = &t
				return nil
			}
		}
		return gorm.ErrRecordNotFound
	})
	return out, err
}

func (r *refreshTokenRepo) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	return r.revoke(ctx, func(t models.RefreshToken) bool { return t.TokenHash == tokenHash })
}

func (r *refreshTokenRepo) RevokeAllByUserID(ctx context.Context, userID uint) error {
	return r.revoke(ctx, func(t models.RefreshToken) bool { return t.UserID == userID })
}

func (r *refreshTokenRepo) revoke(ctx context.Context, match func(models.RefreshToken) bool) error {
	return r.s.write(ctx, func(d *tables) error {
		now := r.s.now()
		for id, t := range d.tokens.rows {
			if t.RevokedAt == nil && match(t) {
				t.RevokedAt = &now
				d.tokens.rows[id] = t
			}
		}
		return nil
	})
}

func (r *refreshTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var n int64
	err := r.s.write(ctx, func(d *tables) error {
		now := time.Now()
		for id, t := range d.tokens.rows {
			if t.ExpiresAt.Before(now) {
				delete(d.tokens.rows, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func paginate[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		return items
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
