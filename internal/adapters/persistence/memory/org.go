package memory

import (
	"context"
	"sort"
	"time"

	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

type roleRepo struct{ s *Store }

func cloneRole(r *models.Role) *models.Role {
	cp := *r
	cp.Permissions = cloneStrings(r.Permissions)
	return &cp
}

func (r *roleRepo) Create(_ context.Context, role *models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.roles {
		if existing.Name == role.Name {
			return duplicate("role name")
		}
	}
	role.ID = r.s.nextID("roles")
	stamp(&role.CreatedAt)
	r.s.roles[role.ID] = cloneRole(role)
	return nil
}

func (r *roleRepo) GetByID(_ context.Context, id uint) (*models.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	role, ok := r.s.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneRole(role), nil
}

func (r *roleRepo) GetByName(_ context.Context, name string) (*models.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, role := range r.s.roles {
		if role.Name == name {
			return cloneRole(role), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *roleRepo) List(_ context.Context) ([]*models.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		out = append(out, cloneRole(role))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *roleRepo) Update(_ context.Context, role *models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.roles[role.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.s.roles[role.ID] = cloneRole(role)
	return nil
}

type groupRepo struct{ s *Store }

func (r *groupRepo) Create(_ context.Context, group *models.Group) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	group.ID = r.s.nextID("groups")
	stamp(&group.CreatedAt)
	group.UpdatedAt = group.CreatedAt
	cp := *group
	r.s.groups[group.ID] = &cp
	return nil
}

func (r *groupRepo) GetByID(_ context.Context, id uint) (*models.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *groupRepo) List(_ context.Context) ([]*models.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Group, 0, len(r.s.groups))
	for _, g := range r.s.groups {
		cp := *g
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *groupRepo) Update(_ context.Context, group *models.Group) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.groups[group.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	group.UpdatedAt = time.Now()
	cp := *group
	r.s.groups[group.ID] = &cp
	return nil
}

func (r *groupRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.groups[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.groups, id)
	return nil
}

type memberRepo struct{ s *Store }

func (r *memberRepo) Create(_ context.Context, member *models.Member) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, m := range r.s.members {
		if m.Aadhaar == member.Aadhaar {
			return duplicate("aadhaar")
		}
	}
	member.ID = r.s.nextID("members")
	stamp(&member.CreatedAt)
	member.UpdatedAt = member.CreatedAt
	cp := *member
	r.s.members[member.ID] = &cp
	return nil
}

func (r *memberRepo) GetByID(_ context.Context, id uint) (*models.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.members[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memberRepo) GetByUserID(_ context.Context, userID uint) (*models.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, m := range r.s.members {
		if m.UserID != nil && *m.UserID == userID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memberRepo) GetByAadhaar(_ context.Context, aadhaar string) (*models.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, m := range r.s.members {
		if m.Aadhaar == aadhaar {
			cp := *m
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memberRepo) List(_ context.Context, filter repositories.MemberFilter) ([]*models.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Member, 0)
	for _, m := range r.s.members {
		if filter.GroupID != nil && m.GroupID != *filter.GroupID {
			continue
		}
		if filter.Approved != nil && m.IsApproved != *filter.Approved {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memberRepo) Update(_ context.Context, member *models.Member) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.members[member.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	for id, m := range r.s.members {
		if id != member.ID && m.Aadhaar == member.Aadhaar {
			return duplicate("aadhaar")
		}
	}
	member.UpdatedAt = time.Now()
	cp := *member
	r.s.members[member.ID] = &cp
	return nil
}

func (r *memberRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.members[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.members, id)
	return nil
}

func (r *memberRepo) CountByGroup(_ context.Context, groupID uint) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, m := range r.s.members {
		if m.GroupID == groupID {
			n++
		}
	}
	return n, nil
}
