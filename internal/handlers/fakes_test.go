package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/takopi/backend/internal/meshy"
	"github.com/takopi/backend/internal/models"
	"github.com/takopi/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore backs every fake repository so handlers see one consistent world.
type memStore struct {
	mu            sync.Mutex
	users         map[uint]models.User
	nextUserID    uint
	follows       []models.Follow
	likes         []models.Like
	purchases     []models.Purchase
	notifications []models.Notification
	contents      map[string]models.Content
	generations   map[string]models.Generation
	clock         time.Time
	counterErr    error // returned by every content counter update when set
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[uint]models.User{},
		contents:    map[string]models.Content{},
		generations: map[string]models.Generation{},
		clock:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so ordering is deterministic.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func paginate[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// --- users ---

type fakeUserRepo struct{ s *memStore }

func (r fakeUserRepo) CreateUser(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Username, u.Username) || strings.EqualFold(existing.Email, u.Email) {
			return repositories.ErrDuplicate
		}
	}
	r.s.nextUserID++
	u.ID = r.s.nextUserID
	u.CreatedAt = r.s.tick()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = *u
	return nil
}

func (r fakeUserRepo) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r fakeUserRepo) GetUsersByIDs(_ context.Context, ids []uint) (map[uint]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[uint]models.User{}
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (r fakeUserRepo) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (r fakeUserRepo) GetUserByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == uid })
}

func (r fakeUserRepo) GetRecentUsers(_ context.Context, limit int) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r fakeUserRepo) UpdateUser(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.users[u.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.DisplayName = u.DisplayName
	stored.Bio = u.Bio
	stored.AvatarURL = u.AvatarURL
	stored.FirebaseUID = u.FirebaseUID
	stored.UpdatedAt = r.s.tick()
	r.s.users[u.ID] = stored
	return nil
}

// --- follows ---

type fakeFollowRepo struct{ s *memStore }

func (r fakeFollowRepo) CreateFollow(_ context.Context, f *models.Follow) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.follows {
		if existing.FollowerID == f.FollowerID && existing.FollowingID == f.FollowingID {
			return repositories.ErrDuplicate
		}
	}
	f.ID = uint(len(r.s.follows) + 1)
	f.CreatedAt = r.s.tick()
	r.s.follows = append(r.s.follows, *f)
	r.s.adjustFollowCounts(f.FollowerID, f.FollowingID, 1)
	return nil
}

func (r fakeFollowRepo) DeleteFollow(_ context.Context, followerID, followingID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, f := range r.s.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			r.s.follows = append(r.s.follows[:i], r.s.follows[i+1:]...)
			r.s.adjustFollowCounts(followerID, followingID, -1)
			return nil
		}
	}
	return repositories.ErrNotFound
}

// adjustFollowCounts expects s.mu to be held.
func (s *memStore) adjustFollowCounts(followerID, followingID uint, delta int) {
	clamp := func(n int) int {
		if n < 0 {
			return 0
		}
		return n
	}
	if u, ok := s.users[followerID]; ok {
		u.FollowingCount = clamp(u.FollowingCount + delta)
		s.users[followerID] = u
	}
	if u, ok := s.users[followingID]; ok {
		u.FollowersCount = clamp(u.FollowersCount + delta)
		s.users[followingID] = u
	}
}

func (r fakeFollowRepo) IsFollowing(_ context.Context, followerID, followingID uint) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeFollowRepo) list(match func(models.Follow) (uint, bool), page, limit int) ([]models.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var users []models.User
	for i := len(r.s.follows) - 1; i >= 0; i-- {
		if id, ok := match(r.s.follows[i]); ok {
			users = append(users, r.s.users[id])
		}
	}
	return paginate(users, page, limit), int64(len(users)), nil
}

func (r fakeFollowRepo) GetFollowers(_ context.Context, userID uint, page, limit int) ([]models.User, int64, error) {
	return r.list(func(f models.Follow) (uint, bool) { return f.FollowerID, f.FollowingID == userID }, page, limit)
}

func (r fakeFollowRepo) GetFollowing(_ context.Context, userID uint, page, limit int) ([]models.User, int64, error) {
	return r.list(func(f models.Follow) (uint, bool) { return f.FollowingID, f.FollowerID == userID }, page, limit)
}

func (r fakeFollowRepo) GetFollowingIDs(_ context.Context, userID uint) ([]uint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := []uint{}
	for _, f := range r.s.follows {
		if f.FollowerID == userID {
			ids = append(ids, f.FollowingID)
		}
	}
	return ids, nil
}

// --- likes ---

type fakeLikeRepo struct{ s *memStore }

func (r fakeLikeRepo) CreateLike(_ context.Context, l *models.Like) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.likes {
		if existing.UserID == l.UserID && existing.ContentID == l.ContentID {
			return repositories.ErrDuplicate
		}
	}
	l.ID = uint(len(r.s.likes) + 1)
	l.CreatedAt = r.s.tick()
	r.s.likes = append(r.s.likes, *l)
	return nil
}

func (r fakeLikeRepo) DeleteLike(_ context.Context, userID uint, contentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, l := range r.s.likes {
		if l.UserID == userID && l.ContentID == contentID {
			r.s.likes = append(r.s.likes[:i], r.s.likes[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r fakeLikeRepo) HasUserLiked(_ context.Context, userID uint, contentID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.likes {
		if l.UserID == userID && l.ContentID == contentID {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeLikeRepo) GetLikedContentIDs(_ context.Context, userID uint, contentIDs []string) (map[string]bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[string]bool{}
	for _, l := range r.s.likes {
		for _, id := range contentIDs {
			if l.UserID == userID && l.ContentID == id {
				out[id] = true
			}
		}
	}
	return out, nil
}

func (r fakeLikeRepo) GetLikesByUser(_ context.Context, userID uint, page, limit int) ([]models.Like, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var likes []models.Like
	for i := len(r.s.likes) - 1; i >= 0; i-- {
		if r.s.likes[i].UserID == userID {
			likes = append(likes, r.s.likes[i])
		}
	}
	return paginate(likes, page, limit), int64(len(likes)), nil
}

func (r fakeLikeRepo) DeleteLikesForContent(_ context.Context, contentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.likes[:0]
	for _, l := range r.s.likes {
		if l.ContentID != contentID {
			kept = append(kept, l)
		}
	}
	r.s.likes = kept
	return nil
}

// --- purchases ---

type fakePurchaseRepo struct{ s *memStore }

func (r fakePurchaseRepo) CreatePurchase(_ context.Context, p *models.Purchase) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.purchases {
		if existing.BuyerID == p.BuyerID && existing.ContentID == p.ContentID {
			return repositories.ErrDuplicate
		}
	}
	p.ID = uint(len(r.s.purchases) + 1)
	p.CreatedAt = r.s.tick()
	r.s.purchases = append(r.s.purchases, *p)
	return nil
}

func (r fakePurchaseRepo) HasPurchased(_ context.Context, buyerID uint, contentID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.purchases {
		if p.BuyerID == buyerID && p.ContentID == contentID {
			return true, nil
		}
	}
	return false, nil
}

func (r fakePurchaseRepo) GetPurchasedContentIDs(_ context.Context, buyerID uint, contentIDs []string) (map[string]bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[string]bool{}
	for _, p := range r.s.purchases {
		for _, id := range contentIDs {
			if p.BuyerID == buyerID && p.ContentID == id {
				out[id] = true
			}
		}
	}
	return out, nil
}

func (r fakePurchaseRepo) GetPurchasesByBuyer(_ context.Context, buyerID uint, page, limit int) ([]models.Purchase, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Purchase
	for i := len(r.s.purchases) - 1; i >= 0; i-- {
		if r.s.purchases[i].BuyerID == buyerID {
			out = append(out, r.s.purchases[i])
		}
	}
	return paginate(out, page, limit), int64(len(out)), nil
}

// --- notifications ---

type fakeNotificationRepo struct{ s *memStore }

func (r fakeNotificationRepo) CreateNotification(_ context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = uint(len(r.s.notifications) + 1)
	n.CreatedAt = r.s.tick()
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r fakeNotificationRepo) GetByRecipientID(_ context.Context, recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Notification
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		if r.s.notifications[i].RecipientID == recipientID {
			out = append(out, r.s.notifications[i])
		}
	}
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r fakeNotificationRepo) GetUnreadCount(_ context.Context, recipientID uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, notif := range r.s.notifications {
		if notif.RecipientID == recipientID && !notif.IsRead {
			n++
		}
	}
	return n, nil
}

func (r fakeNotificationRepo) MarkAsRead(_ context.Context, recipientID, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, n := range r.s.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			r.s.notifications[i].IsRead = true
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r fakeNotificationRepo) MarkAllAsRead(_ context.Context, recipientID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, n := range r.s.notifications {
		if n.RecipientID == recipientID {
			r.s.notifications[i].IsRead = true
		}
	}
	return nil
}

// --- contents ---

type fakeContentRepo struct{ s *memStore }

func (r fakeContentRepo) EnsureIndexes(context.Context) error { return nil }

func (r fakeContentRepo) CreateContent(_ context.Context, c *models.Content) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = r.s.tick()
	c.UpdatedAt = c.CreatedAt
	if c.Tags == nil {
		c.Tags = []string{}
	}
	r.s.contents[c.ID.Hex()] = *c
	return nil
}

func (r fakeContentRepo) GetContentByID(_ context.Context, id string) (*models.Content, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repositories.ErrInvalidID
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contents[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (r fakeContentRepo) GetContentsByIDs(_ context.Context, ids []string) (map[string]models.Content, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[string]models.Content{}
	for _, id := range ids {
		if c, ok := r.s.contents[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (r fakeContentRepo) ListContent(_ context.Context, f models.ContentFilter, skip, limit int64) ([]models.Content, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	owners := map[uint]bool{}
	for _, id := range f.OwnerIDs {
		owners[id] = true
	}

	var out []models.Content
	for _, c := range r.s.contents {
		switch {
		case f.Status != "" && c.Status != f.Status,
			f.OwnerID != 0 && c.OwnerID != f.OwnerID,
			f.OwnerID == 0 && f.OwnerIDs != nil && !owners[c.OwnerID],
			f.Category != "" && c.Category != f.Category,
			f.Query != "" && !strings.Contains(strings.ToLower(c.Title), strings.ToLower(f.Query)):
			continue
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		switch f.Sort {
		case "price_asc":
			return out[i].Price < out[j].Price
		case "price_desc":
			return out[i].Price > out[j].Price
		case "popular":
			return out[i].LikesCount > out[j].LikesCount
		default:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
	})

	total := int64(len(out))
	if skip >= total {
		return []models.Content{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return out[skip:end], total, nil
}

func (r fakeContentRepo) UpdateContent(_ context.Context, c *models.Content) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.contents[c.ID.Hex()]; !ok {
		return repositories.ErrNotFound
	}
	r.s.contents[c.ID.Hex()] = *c
	return nil
}

func (r fakeContentRepo) PublishContent(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contents[id]
	if !ok || c.Status != models.ContentStatusDraft {
		return repositories.ErrConflict
	}
	c.Status = models.ContentStatusPublished
	c.PublishedAt = &at
	r.s.contents[id] = c
	return nil
}

func (r fakeContentRepo) DeleteContent(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.contents[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.contents, id)
	return nil
}

func (r fakeContentRepo) IncrementCounter(_ context.Context, id, field string, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.counterErr != nil {
		return r.s.counterErr
	}
	c, ok := r.s.contents[id]
	if !ok {
		return nil
	}
	var p *int
	switch field {
	case repositories.CounterLikes:
		p = &c.LikesCount
	case repositories.CounterPurchases:
		p = &c.PurchasesCount
	case repositories.CounterViews:
		p = &c.ViewsCount
	default:
		return fmt.Errorf("unknown counter %q", field)
	}
	if *p+delta >= 0 {
		*p += delta
	}
	r.s.contents[id] = c
	return nil
}

// --- generations ---

type fakeGenerationRepo struct{ s *memStore }

func (r fakeGenerationRepo) EnsureIndexes(context.Context) error { return nil }

func (r fakeGenerationRepo) CreateGeneration(_ context.Context, g *models.Generation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g.ID = primitive.NewObjectID()
	g.CreatedAt = r.s.tick()
	g.UpdatedAt = g.CreatedAt
	if g.Status == "" {
		g.Status = models.GenerationPending
	}
	r.s.generations[g.ID.Hex()] = *g
	return nil
}

func (r fakeGenerationRepo) GetGenerationByID(_ context.Context, id string) (*models.Generation, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repositories.ErrInvalidID
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.generations[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &g, nil
}

func (r fakeGenerationRepo) GetGenerationsByUserID(_ context.Context, userID uint, status string, skip, limit int64) ([]models.Generation, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Generation
	for _, g := range r.s.generations {
		if g.UserID == userID && (status == "" || g.Status == status) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if skip >= total {
		return []models.Generation{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return out[skip:end], total, nil
}

func (r fakeGenerationRepo) UpdateGenerationStatus(_ context.Context, g *models.Generation, fromStatus string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.generations[g.ID.Hex()]
	if !ok || stored.Status != fromStatus {
		return repositories.ErrConflict
	}
	r.s.generations[g.ID.Hex()] = *g
	return nil
}

// --- external services ---

type fakeMeshy struct {
	mu        sync.Mutex
	balance   int
	err       error
	tasks     map[string]*meshy.Task
	textReqs  []meshy.TextTo3DRequest
	imageReqs []meshy.ImageTo3DRequest
	retexReqs []meshy.RetextureRequest
	fetches   int
	nextID    int
}

func newFakeMeshy() *fakeMeshy {
	return &fakeMeshy{balance: 100, tasks: map[string]*meshy.Task{}}
}

func (m *fakeMeshy) newTask() string {
	m.nextID++
	id := fmt.Sprintf("task-%d", m.nextID)
	m.tasks[id] = &meshy.Task{ID: id, Status: models.GenerationPending}
	return id
}

func (m *fakeMeshy) GetBalance(context.Context) (*meshy.Balance, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &meshy.Balance{Balance: m.balance}, nil
}

func (m *fakeMeshy) CreateTextTo3D(_ context.Context, req meshy.TextTo3DRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.textReqs = append(m.textReqs, req)
	return m.newTask(), nil
}

func (m *fakeMeshy) CreateImageTo3D(_ context.Context, req meshy.ImageTo3DRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.imageReqs = append(m.imageReqs, req)
	return m.newTask(), nil
}

func (m *fakeMeshy) CreateRetexture(_ context.Context, req meshy.RetextureRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.retexReqs = append(m.retexReqs, req)
	return m.newTask(), nil
}

func (m *fakeMeshy) getTask(id string) (*meshy.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.tasks[id]
	if !ok {
		return nil, &meshy.APIError{StatusCode: 404, Message: "Task not found"}
	}
	copied := *t
	return &copied, nil
}

func (m *fakeMeshy) GetTextTo3D(_ context.Context, id string) (*meshy.Task, error) {
	return m.getTask(id)
}
func (m *fakeMeshy) GetImageTo3D(_ context.Context, id string) (*meshy.Task, error) {
	return m.getTask(id)
}
func (m *fakeMeshy) GetRetexture(_ context.Context, id string) (*meshy.Task, error) {
	return m.getTask(id)
}

func (m *fakeMeshy) finish(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tasks[id]
	t.Status = models.GenerationSucceeded
	t.Progress = 100
	t.ModelURLs = meshy.ModelURLs{GLB: "https://assets.meshy.ai/" + id + "/model.glb"}
	t.ThumbnailURL = "https://assets.meshy.ai/" + id + "/preview.png"
	t.FinishedAt = 1767225600000
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMailer) record(kind, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, kind+":"+to)
}

func (m *fakeMailer) Welcome(u *models.User) { m.record("welcome", u.Email) }
func (m *fakeMailer) PurchaseReceipt(b *models.User, _ *models.Content, _ *models.Purchase) {
	m.record("receipt", b.Email)
}
func (m *fakeMailer) SaleNotification(s, _ *models.User, _ *models.Content, _ *models.Purchase) {
	m.record("sale", s.Email)
}
func (m *fakeMailer) NewFollower(t, _ *models.User) { m.record("follower", t.Email) }
func (m *fakeMailer) GenerationReady(u *models.User, _ *models.Generation) {
	m.record("generation", u.Email)
}

func (m *fakeMailer) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}
