package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelier/backoffice/pkg/auth"
	"github.com/hotelier/backoffice/pkg/middleware"
	"github.com/hotelier/backoffice/pkg/observability"
	"github.com/hotelier/backoffice/pkg/rbac"
	"github.com/hotelier/backoffice/pkg/storage"
)

// fakeStore is an in-memory storage.Store for handler tests
type fakeStore struct {
	mu sync.Mutex

	nextID      int64
	users       map[int64]*storage.User
	tokens      map[string]*storage.OneTimeToken
	groups      map[int64]*storage.Group
	permissions map[int64]*storage.Permission
	userGroups  map[int64][]int64
	groupPerms  map[int64][]int64
	rooms       map[int64]*storage.Room
	categories  map[int64]*storage.Category
	tags        map[int64]*storage.Tag
	catTags     map[int64][]int64
	photos      map[int64]*storage.Photo
	sales       map[int64]*storage.Sale
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[int64]*storage.User),
		tokens:      make(map[string]*storage.OneTimeToken),
		groups:      make(map[int64]*storage.Group),
		permissions: make(map[int64]*storage.Permission),
		userGroups:  make(map[int64][]int64),
		groupPerms:  make(map[int64][]int64),
		rooms:       make(map[int64]*storage.Room),
		categories:  make(map[int64]*storage.Category),
		tags:        make(map[int64]*storage.Tag),
		catTags:     make(map[int64][]int64),
		photos:      make(map[int64]*storage.Photo),
		sales:       make(map[int64]*storage.Sale),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, storage.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email && u.DeletedAt == nil {
			copied := *u
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) CreateUser(_ context.Context, user *storage.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email && u.DeletedAt == nil {
			return storage.ErrDuplicateEmail
		}
	}
	user.ID = f.id()
	user.CreatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeStore) UpdateUser(_ context.Context, user *storage.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return storage.ErrNotFound
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeStore) DeleteUser(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.DeletedAt != nil {
		return storage.ErrNotFound
	}
	now := time.Now()
	u.DeletedAt = &now
	return nil
}

func (f *fakeStore) ListUsers(_ context.Context, kind storage.UserKind) ([]*storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*storage.User
	for _, u := range f.users {
		if u.Kind == kind && u.DeletedAt == nil {
			copied := *u
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GroupsOfUser(_ context.Context, userID int64) ([]storage.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.Group
	for _, gid := range f.userGroups[userID] {
		if g, ok := f.groups[gid]; ok {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeStore) PermissionsOfGroup(_ context.Context, groupID int64) ([]storage.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.Permission
	for _, pid := range f.groupPerms[groupID] {
		if p, ok := f.permissions[pid]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) SetUserGroups(_ context.Context, userID int64, groupIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userGroups[userID] = append([]int64(nil), groupIDs...)
	return nil
}

func (f *fakeStore) SaveOneTimeToken(_ context.Context, token *storage.OneTimeToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	token.ID = f.id()
	copied := *token
	f.tokens[token.Value] = &copied
	return nil
}

func (f *fakeStore) FindOneTimeToken(_ context.Context, value string, kind storage.TokenKind) (*storage.OneTimeToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[value]
	if !ok || t.Kind != kind || t.ConsumedAt != nil || t.ExpiresAt.Before(time.Now()) {
		return nil, storage.ErrTokenNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeStore) consume(value string, kind storage.TokenKind) (int64, error) {
	t, ok := f.tokens[value]
	if !ok || t.Kind != kind || t.ConsumedAt != nil || t.ExpiresAt.Before(time.Now()) {
		return 0, storage.ErrTokenNotFound
	}
	now := time.Now()
	t.ConsumedAt = &now
	return t.UserID, nil
}

func (f *fakeStore) ConfirmRegistration(_ context.Context, value string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, err := f.consume(value, storage.TokenRegister)
	if err != nil {
		return 0, err
	}
	if u, ok := f.users[userID]; ok {
		u.IsConfirmed = true
	}
	return userID, nil
}

func (f *fakeStore) ResetPassword(_ context.Context, value string, newHash string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, err := f.consume(value, storage.TokenReset)
	if err != nil {
		return 0, err
	}
	if u, ok := f.users[userID]; ok {
		u.PasswordHash = newHash
	}
	return userID, nil
}

func (f *fakeStore) PurgeOneTimeTokens(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var purged int64
	for value, t := range f.tokens {
		if t.ConsumedAt != nil || t.ExpiresAt.Before(cutoff) {
			delete(f.tokens, value)
			purged++
		}
	}
	return purged, nil
}

func (f *fakeStore) ListRooms(_ context.Context) ([]*storage.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*storage.Room
	for _, r := range f.rooms {
		if r.DeletedAt == nil {
			copied := *r
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetRoom(_ context.Context, id int64) (*storage.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok || r.DeletedAt != nil {
		return nil, storage.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeStore) CreateRoom(_ context.Context, room *storage.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rooms {
		if r.RoomNumber == room.RoomNumber && r.DeletedAt == nil {
			return storage.ErrDuplicateRoomNumber
		}
	}
	room.ID = f.id()
	copied := *room
	f.rooms[room.ID] = &copied
	return nil
}

func (f *fakeStore) UpdateRoom(_ context.Context, room *storage.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[room.ID]; !ok {
		return storage.ErrNotFound
	}
	copied := *room
	f.rooms[room.ID] = &copied
	return nil
}

func (f *fakeStore) DeleteRoom(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok || r.DeletedAt != nil {
		return storage.ErrNotFound
	}
	now := time.Now()
	r.DeletedAt = &now
	return nil
}

func (f *fakeStore) FilterCategories(_ context.Context, filter storage.CategoryFilter) ([]*storage.Category, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*storage.Category
	for _, c := range f.categories {
		if c.DeletedAt != nil {
			continue
		}
		if c.IsHidden && !filter.ShowHidden {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeStore) GetCategory(_ context.Context, id int64) (*storage.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok || c.DeletedAt != nil {
		return nil, storage.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeStore) CreateCategory(_ context.Context, category *storage.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	category.ID = f.id()
	copied := *category
	f.categories[category.ID] = &copied
	return nil
}

func (f *fakeStore) UpdateCategory(_ context.Context, category *storage.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[category.ID]; !ok {
		return storage.ErrNotFound
	}
	copied := *category
	f.categories[category.ID] = &copied
	return nil
}

func (f *fakeStore) DeleteCategory(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok || c.DeletedAt != nil {
		return storage.ErrNotFound
	}
	now := time.Now()
	c.DeletedAt = &now
	return nil
}

func (f *fakeStore) FamiliarCategories(_ context.Context, id int64) ([]*storage.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mine := make(map[int64]struct{})
	for _, tid := range f.catTags[id] {
		mine[tid] = struct{}{}
	}
	var out []*storage.Category
	for cid, tids := range f.catTags {
		if cid == id {
			continue
		}
		c, ok := f.categories[cid]
		if !ok || c.DeletedAt != nil || c.IsHidden {
			continue
		}
		for _, tid := range tids {
			if _, shared := mine[tid]; shared {
				copied := *c
				out = append(out, &copied)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) TagsOfCategory(_ context.Context, id int64) ([]storage.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.Tag
	for _, tid := range f.catTags[id] {
		if t, ok := f.tags[tid]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeStore) AddTagToCategory(_ context.Context, categoryID, tagID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tid := range f.catTags[categoryID] {
		if tid == tagID {
			return nil
		}
	}
	f.catTags[categoryID] = append(f.catTags[categoryID], tagID)
	return nil
}

func (f *fakeStore) RemoveTagFromCategory(_ context.Context, categoryID, tagID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tids := f.catTags[categoryID]
	for i, tid := range tids {
		if tid == tagID {
			f.catTags[categoryID] = append(tids[:i], tids[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeStore) ListTags(_ context.Context) ([]*storage.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*storage.Tag
	for _, t := range f.tags {
		copied := *t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetTag(_ context.Context, id int64) (*storage.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tags[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeStore) CreateTag(_ context.Context, tag *storage.Tag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tag.ID = f.id()
	copied := *tag
	f.tags[tag.ID] = &copied
	return nil
}

func (f *fakeStore) UpdateTag(_ context.Context, tag *storage.Tag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tags[tag.ID]; !ok {
		return storage.ErrNotFound
	}
	copied := *tag
	f.tags[tag.ID] = &copied
	return nil
}

func (f *fakeStore) DeleteTag(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tags[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.tags, id)
	return nil
}

func (f *fakeStore) ListPhotos(_ context.Context) ([]*storage.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*storage.Photo
	for _, p := range f.photos {
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetPhoto(_ context.Context, id int64) (*storage.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.photos[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeStore) CreatePhoto(_ context.Context, photo *storage.Photo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	photo.ID = f.id()
	copied := *photo
	f.photos[photo.ID] = &copied
	return nil
}

func (f *fakeStore) UpdatePhoto(_ context.Context, photo *storage.Photo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.photos[photo.ID]; !ok {
		return storage.ErrNotFound
	}
	copied := *photo
	f.photos[photo.ID] = &copied
	return nil
}

func (f *fakeStore) DeletePhoto(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.photos[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.photos, id)
	return nil
}

func (f *fakeStore) ListSales(_ context.Context) ([]*storage.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*storage.Sale
	for _, s := range f.sales {
		copied := *s
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetSale(_ context.Context, id int64) (*storage.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStore) CreateSale(_ context.Context, sale *storage.Sale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sale.ID = f.id()
	copied := *sale
	f.sales[sale.ID] = &copied
	return nil
}

func (f *fakeStore) UpdateSale(_ context.Context, sale *storage.Sale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sales[sale.ID]; !ok {
		return storage.ErrNotFound
	}
	copied := *sale
	f.sales[sale.ID] = &copied
	return nil
}

func (f *fakeStore) DeleteSale(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sales[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.sales, id)
	return nil
}

func (f *fakeStore) ListGroups(_ context.Context) ([]*storage.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*storage.Group
	for _, g := range f.groups {
		copied := *g
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetGroup(_ context.Context, id int64) (*storage.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *g
	return &copied, nil
}

func (f *fakeStore) CreateGroup(_ context.Context, group *storage.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	group.ID = f.id()
	copied := *group
	f.groups[group.ID] = &copied
	return nil
}

func (f *fakeStore) UpdateGroup(_ context.Context, group *storage.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[group.ID]; !ok {
		return storage.ErrNotFound
	}
	copied := *group
	f.groups[group.ID] = &copied
	return nil
}

func (f *fakeStore) DeleteGroup(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.groups, id)
	delete(f.groupPerms, id)
	return nil
}

func (f *fakeStore) AddPermissionToGroup(_ context.Context, groupID, permissionID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, pid := range f.groupPerms[groupID] {
		if pid == permissionID {
			return nil
		}
	}
	f.groupPerms[groupID] = append(f.groupPerms[groupID], permissionID)
	return nil
}

func (f *fakeStore) RemovePermissionFromGroup(_ context.Context, groupID, permissionID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	pids := f.groupPerms[groupID]
	for i, pid := range pids {
		if pid == permissionID {
			f.groupPerms[groupID] = append(pids[:i], pids[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeStore) ListPermissions(_ context.Context) ([]*storage.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*storage.Permission
	for _, p := range f.permissions {
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetPermission(_ context.Context, id int64) (*storage.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.permissions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

// fakeFiles records saves and removals without touching disk
type fakeFiles struct {
	mu      sync.Mutex
	nextID  int
	saved   []string
	removed []string
}

func (f *fakeFiles) Save(content io.Reader, fileName string) (string, error) {
	if _, err := io.Copy(io.Discard, content); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	path := fmt.Sprintf("media/upload-%d", f.nextID)
	f.saved = append(f.saved, path)
	return path, nil
}

func (f *fakeFiles) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, path)
	return nil
}

type testEnv struct {
	t      *testing.T
	store  *fakeStore
	files  *fakeFiles
	hasher auth.Hasher
	codec  *auth.TokenCodec
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	codec, err := auth.NewTokenCodec(auth.TokenCodecConfig{
		Secret:     []byte("0123456789abcdef0123456789abcdef"),
		AccessTTL:  time.Hour,
		RefreshTTL: 2 * time.Hour,
		Issuer:     "backoffice",
	})
	require.NoError(t, err)
	hasher, err := auth.NewArgon2Hasher(auth.Argon2Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	require.NoError(t, err)

	store := newFakeStore()
	files := &fakeFiles{}
	tokens := auth.NewOneTimeTokens(store, time.Hour)
	service := auth.NewService(store, codec, hasher, tokens, logger)

	server := NewServer(Config{
		Store:         store,
		Files:         files,
		AuthService:   service,
		Checker:       rbac.NewChecker(store),
		Authenticator: middleware.NewAuthenticator(codec, store, logger),
		Logger:        logger,
		PublicURL:     "http://backoffice.test",
	})
	return &testEnv{
		t:      t,
		store:  store,
		files:  files,
		hasher: hasher,
		codec:  codec,
		router: server.Router(),
	}
}

// addWorker creates a confirmed worker with the given permission codes
// gathered in a fresh group
func (e *testEnv) addWorker(email, password string, superuser bool, codes ...string) *storage.User {
	e.t.Helper()

	hash, err := e.hasher.Hash(password)
	require.NoError(e.t, err)
	user := &storage.User{
		Kind:         storage.KindWorker,
		Email:        email,
		PasswordHash: hash,
		IsConfirmed:  true,
		IsSuperuser:  superuser,
	}
	require.NoError(e.t, e.store.CreateUser(context.Background(), user))

	if len(codes) > 0 {
		group := &storage.Group{Name: "group for " + email}
		require.NoError(e.t, e.store.CreateGroup(context.Background(), group))
		for _, code := range codes {
			perm := e.permissionByCode(code)
			require.NoError(e.t, e.store.AddPermissionToGroup(context.Background(), group.ID, perm.ID))
		}
		require.NoError(e.t, e.store.SetUserGroups(context.Background(), user.ID, []int64{group.ID}))
	}
	return user
}

// permissionByCode finds or seeds a permission row
func (e *testEnv) permissionByCode(code string) *storage.Permission {
	e.t.Helper()
	e.store.mu.Lock()
	for _, p := range e.store.permissions {
		if p.Code == code {
			e.store.mu.Unlock()
			return p
		}
	}
	id := e.store.id()
	perm := &storage.Permission{ID: id, Name: code, Code: code}
	e.store.permissions[id] = perm
	e.store.mu.Unlock()
	return perm
}

func (e *testEnv) accessToken(userID int64) string {
	e.t.Helper()
	token, err := e.codec.Issue(userID, false)
	require.NoError(e.t, err)
	return token
}

// do performs a JSON request, optionally authenticated
func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	decodeBody(t, rec, &body)
	return body.Detail
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.addWorker("alice@hotel.test", "sup3rsecret", false)

	t.Run("valid credentials return a token pair", func(t *testing.T) {
		rec := env.do("POST", "/auth/login", "", map[string]string{
			"email": "alice@hotel.test", "password": "sup3rsecret",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var body tokenResponse
		decodeBody(t, rec, &body)
		assert.NotEmpty(t, body.AccessToken)
		assert.NotEmpty(t, body.RefreshToken)
		assert.Equal(t, "bearer", body.TokenType)
	})

	t.Run("wrong password is a uniform 401", func(t *testing.T) {
		rec := env.do("POST", "/auth/login", "", map[string]string{
			"email": "alice@hotel.test", "password": "wrong",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "could not validate credentials", detailOf(t, rec))
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("unknown email reads exactly like a wrong password", func(t *testing.T) {
		rec := env.do("POST", "/auth/login", "", map[string]string{
			"email": "nobody@hotel.test", "password": "sup3rsecret",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "could not validate credentials", detailOf(t, rec))
	})
}

func TestRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.addWorker("bob@hotel.test", "sup3rsecret", false)

	refresh, err := env.codec.Issue(user.ID, true)
	require.NoError(t, err)

	rec := env.do("POST", "/auth/refresh_user_token", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	var body tokenResponse
	decodeBody(t, rec, &body)
	assert.NotEmpty(t, body.AccessToken)

	t.Run("access token is rejected", func(t *testing.T) {
		access := env.accessToken(user.ID)
		rec := env.do("POST", "/auth/refresh_user_token", "", map[string]string{"refresh_token": access})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "could not validate credentials", detailOf(t, rec))
	})
}

func TestSignUpAndConfirm(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("POST", "/auth/sign_up", "", map[string]string{
		"email": "guest@hotel.test", "password": "longenough",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// The response carries the confirmation link; no out-of-band channel is
	// needed to complete the flow
	var created struct {
		Email       string `json:"email"`
		ConfirmLink string `json:"confirm_link"`
	}
	decodeBody(t, rec, &created)
	assert.Equal(t, "guest@hotel.test", created.Email)
	const confirmPrefix = "http://backoffice.test/auth/confirm_sign_up/"
	require.True(t, strings.HasPrefix(created.ConfirmLink, confirmPrefix), created.ConfirmLink)
	confirmPath := strings.TrimPrefix(created.ConfirmLink, "http://backoffice.test")

	user, err := env.store.GetUserByEmail(context.Background(), "guest@hotel.test")
	require.NoError(t, err)
	assert.False(t, user.IsConfirmed)
	assert.Equal(t, storage.KindClient, user.Kind)

	rec = env.do("POST", confirmPath, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	user, err = env.store.GetUserByEmail(context.Background(), "guest@hotel.test")
	require.NoError(t, err)
	assert.True(t, user.IsConfirmed)

	t.Run("token is single use and reuse is a 401", func(t *testing.T) {
		rec := env.do("POST", confirmPath, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown token is a 401", func(t *testing.T) {
		rec := env.do("POST", "/auth/confirm_sign_up/no-such-token", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("short password rejected", func(t *testing.T) {
		rec := env.do("POST", "/auth/sign_up", "", map[string]string{
			"email": "other@hotel.test", "password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		rec := env.do("POST", "/auth/sign_up", "", map[string]string{
			"email": "guest@hotel.test", "password": "longenough",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	env.addWorker("carol@hotel.test", "oldpassword", false)

	t.Run("unknown email is a 400", func(t *testing.T) {
		rec := env.do("POST", "/auth/request_reset", "", map[string]string{"email": "nobody@hotel.test"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	rec := env.do("POST", "/auth/request_reset", "", map[string]string{"email": "carol@hotel.test"})
	require.Equal(t, http.StatusOK, rec.Code)

	var requested struct {
		Detail      string `json:"detail"`
		ConfirmLink string `json:"confirm_link"`
	}
	decodeBody(t, rec, &requested)
	const resetPrefix = "http://backoffice.test/auth/reset_password/"
	require.True(t, strings.HasPrefix(requested.ConfirmLink, resetPrefix), requested.ConfirmLink)
	resetPath := strings.TrimPrefix(requested.ConfirmLink, "http://backoffice.test")

	rec = env.do("POST", resetPath, "", map[string]string{"password": "newpassword"})
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("old password no longer works", func(t *testing.T) {
		rec := env.do("POST", "/auth/login", "", map[string]string{
			"email": "carol@hotel.test", "password": "oldpassword",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("new password works", func(t *testing.T) {
		rec := env.do("POST", "/auth/login", "", map[string]string{
			"email": "carol@hotel.test", "password": "newpassword",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("reset token is single use and reuse is a 401", func(t *testing.T) {
		rec := env.do("POST", resetPath, "", map[string]string{"password": "thirdpassword"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown token is a 401", func(t *testing.T) {
		rec := env.do("POST", "/auth/reset_password/no-such-token", "", map[string]string{"password": "thirdpassword"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.addWorker("dave@hotel.test", "sup3rsecret", true)

	t.Run("missing token", func(t *testing.T) {
		rec := env.do("GET", "/tags", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "could not validate credentials", detailOf(t, rec))
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := env.do("GET", "/tags", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		refresh, err := env.codec.Issue(user.ID, true)
		require.NoError(t, err)
		rec := env.do("GET", "/tags", refresh, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("deleted user is rejected", func(t *testing.T) {
		token := env.accessToken(user.ID)
		require.NoError(t, env.store.DeleteUser(context.Background(), user.ID))
		rec := env.do("GET", "/tags", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestPermissionEnforcement(t *testing.T) {
	env := newTestEnv(t)

	plain := env.addWorker("plain@hotel.test", "sup3rsecret", false)
	tagger := env.addWorker("tagger@hotel.test", "sup3rsecret", false, rbac.CodeAddTag)
	boss := env.addWorker("boss@hotel.test", "sup3rsecret", true)

	body := map[string]string{"name": "seaside"}

	t.Run("no permission is a 403", func(t *testing.T) {
		rec := env.do("POST", "/tags", env.accessToken(plain.ID), body)
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "not enough permissions", detailOf(t, rec))
	})

	t.Run("granted permission passes", func(t *testing.T) {
		rec := env.do("POST", "/tags", env.accessToken(tagger.ID), body)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("superuser bypasses permission checks", func(t *testing.T) {
		rec := env.do("POST", "/tags", env.accessToken(boss.ID), map[string]string{"name": "poolside"})
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("unguarded read needs only authentication", func(t *testing.T) {
		rec := env.do("GET", "/tags", env.accessToken(plain.ID), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
