package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/referral-api/internal/models"
	"github.com/noah-isme/referral-api/internal/repository"
	appErrors "github.com/noah-isme/referral-api/pkg/errors"
)

type fakeAdmins struct {
	byUsername map[string]*models.Admin
	createErr  error
}

func newFakeAdmins() *fakeAdmins {
	return &fakeAdmins{byUsername: map[string]*models.Admin{}}
}

func (f *fakeAdmins) Create(ctx context.Context, admin *models.Admin) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byUsername[admin.Username]; ok {
		return &repository.DuplicateError{Constraint: repository.ConstraintAdminUsername}
	}
	admin.ID = uuid.NewString()
	stored := *admin
	f.byUsername[admin.Username] = &stored
	return nil
}

func (f *fakeAdmins) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	admin, ok := f.byUsername[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	stored := *admin
	return &stored, nil
}

type fakeColleges struct {
	items     []*models.College
	listCalls int
	createErr error
}

func (f *fakeColleges) Create(ctx context.Context, college *models.College) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.items {
		if existing.Email == college.Email {
			return &repository.DuplicateError{Constraint: repository.ConstraintCollegeEmail}
		}
		if existing.ReferralCode == college.ReferralCode {
			return &repository.DuplicateError{Constraint: repository.ConstraintCollegeReferralCode}
		}
	}
	if college.ID == "" {
		college.ID = uuid.NewString()
	}
	stored := *college
	f.items = append(f.items, &stored)
	return nil
}

func (f *fakeColleges) FindByEmail(ctx context.Context, email string) (*models.College, error) {
	for _, c := range f.items {
		if c.Email == email {
			stored := *c
			return &stored, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeColleges) FindByID(ctx context.Context, id string) (*models.College, error) {
	for _, c := range f.items {
		if c.ID == id {
			stored := *c
			return &stored, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeColleges) List(ctx context.Context) ([]models.College, error) {
	f.listCalls++
	out := make([]models.College, 0, len(f.items))
	for _, c := range f.items {
		out = append(out, *c)
	}
	return out, nil
}

type fakeSchools struct {
	items          []*models.School
	updateVideoErr error
	setEnabledLog  []bool
}

func (f *fakeSchools) add(school models.School) *models.School {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	f.items = append(f.items, &school)
	return &school
}

func (f *fakeSchools) Create(ctx context.Context, school *models.School) error {
	for _, existing := range f.items {
		if existing.PhoneNumber == school.PhoneNumber {
			return &repository.DuplicateError{Constraint: repository.ConstraintSchoolPhone}
		}
	}
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	stored := *school
	f.items = append(f.items, &stored)
	return nil
}

func (f *fakeSchools) FindByPhone(ctx context.Context, phone string) (*models.School, error) {
	for _, s := range f.items {
		if s.PhoneNumber == phone {
			stored := *s
			return &stored, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSchools) FindByID(ctx context.Context, id string) (*models.School, error) {
	for _, s := range f.items {
		if s.ID == id {
			stored := *s
			return &stored, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSchools) List(ctx context.Context, filter models.SchoolFilter) ([]models.School, error) {
	var out []models.School
	for _, s := range f.items {
		if filter.ExcludeDirect && s.IsDirect() {
			continue
		}
		if !filter.IncludeDisabled && !s.IsEnabled {
			continue
		}
		if filter.ReferralCodes != nil && !containsCode(filter.ReferralCodes, s.ReferralCode) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func (f *fakeSchools) SetEnabled(ctx context.Context, id string, enabled bool) error {
	for _, s := range f.items {
		if s.ID == id {
			s.IsEnabled = enabled
			f.setEnabledLog = append(f.setEnabledLog, enabled)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeSchools) UpdateVideo(ctx context.Context, id, key, url string) error {
	if f.updateVideoErr != nil {
		return f.updateVideoErr
	}
	for _, s := range f.items {
		if s.ID == id {
			s.VideoKey = &key
			s.VideoURL = &url
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeAudit struct {
	logs []*models.AuditLog
	err  error
}

func (f *fakeAudit) Create(ctx context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, log)
	return f.err
}

func (f *fakeAudit) actions() []string {
	out := make([]string, 0, len(f.logs))
	for _, l := range f.logs {
		out = append(out, l.Action)
	}
	return out
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) InvalidateReferrals(ctx context.Context) {
	f.calls++
}

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	puts      []string
	deletes   []string
	putErr    error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, key)
	if f.putErr != nil {
		return f.putErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	f.objects[key] = buf.Bytes()
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) URL(key string) string {
	return "https://cdn.test/" + key
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts) + len(f.deletes)
}

type fakeCacheRepo struct {
	entries map[string][]byte
	deletes [][]string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: map[string][]byte{}}
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	return nil
}

func (f *fakeCacheRepo) Delete(ctx context.Context, keys ...string) error {
	f.deletes = append(f.deletes, keys)
	for _, key := range keys {
		delete(f.entries, key)
	}
	return nil
}
