package service_test

import (
	"context"
	"fmt"
	"time"

	"github.com/NishanKutu/ghumfir-api/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// ---------- Mocks ----------

type mockUserRepo struct {
	nextID  int64
	byID    map[int64]*domain.User
	byEmail map[string]*domain.User
	byName  map[string]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		nextID:  1,
		byID:    make(map[int64]*domain.User),
		byEmail: make(map[string]*domain.User),
		byName:  make(map[string]*domain.User),
	}
}

func (m *mockUserRepo) add(u *domain.User) *domain.User {
	if u.ID == 0 {
		u.ID = m.nextID
		m.nextID++
	}
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	m.byName[u.Username] = u
	return u
}

func (m *mockUserRepo) Create(_ context.Context, req *domain.RegisterRequest, passwordHash string) (*domain.User, error) {
	return m.add(&domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		CreatedAt:    time.Now(),
	}), nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.byEmail[email], nil
}

func (m *mockUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return m.byName[username], nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	return m.byID[id], nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserRepo) MarkVerified(_ context.Context, userID int64) error {
	if u, ok := m.byID[userID]; ok {
		u.IsVerified = true
	}
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	if u, ok := m.byID[userID]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, userID int64, req *domain.UpdateProfileRequest) (*domain.User, error) {
	u, ok := m.byID[userID]
	if !ok {
		return nil, nil
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if req.DailyRate != nil {
		u.DailyRate = *req.DailyRate
	}
	return u, nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, userID int64, role domain.Role) error {
	if u, ok := m.byID[userID]; ok {
		u.Role = role
	}
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, userID int64) error {
	if u, ok := m.byID[userID]; ok {
		delete(m.byEmail, u.Email)
		delete(m.byName, u.Username)
		delete(m.byID, userID)
	}
	return nil
}

type resetRow struct {
	userID     int64
	secretHash string
	expiresAt  time.Time
	used       bool
}

type mockTokenRepo struct {
	nextResetID int64
	verifyRows  map[string]resetRow // token -> row
	resetRows   map[int64]*resetRow
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{
		nextResetID: 1,
		verifyRows:  make(map[string]resetRow),
		resetRows:   make(map[int64]*resetRow),
	}
}

func (m *mockTokenRepo) CreateEmailVerification(_ context.Context, userID int64, token string, expiresAt time.Time) error {
	m.verifyRows[token] = resetRow{userID: userID, expiresAt: expiresAt}
	return nil
}

func (m *mockTokenRepo) ConsumeEmailVerification(_ context.Context, token string) (int64, error) {
	row, ok := m.verifyRows[token]
	if !ok || row.used || time.Now().After(row.expiresAt) {
		return 0, nil
	}
	row.used = true
	m.verifyRows[token] = row
	return row.userID, nil
}

func (m *mockTokenRepo) CreatePasswordReset(_ context.Context, userID int64, secretHash string, expiresAt time.Time) (int64, error) {
	id := m.nextResetID
	m.nextResetID++
	m.resetRows[id] = &resetRow{userID: userID, secretHash: secretHash, expiresAt: expiresAt}
	return id, nil
}

func (m *mockTokenRepo) ConsumePasswordReset(_ context.Context, tokenID int64, secret string) (int64, error) {
	row, ok := m.resetRows[tokenID]
	if !ok || row.used || time.Now().After(row.expiresAt) {
		return 0, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(row.secretHash), []byte(secret)) != nil {
		return 0, nil
	}
	row.used = true
	return row.userID, nil
}

func (m *mockTokenRepo) DeleteExpiredTokens(_ context.Context) (int64, error) { return 0, nil }

type mockMailer struct {
	verifyTo   string
	verifyURL  string
	resetTo    string
	resetURL   string
	sendErr    error
	sentVerify int
	sentReset  int
}

func (m *mockMailer) SendVerificationEmail(toEmail, toName, verifyURL string) error {
	m.verifyTo = toEmail
	m.verifyURL = verifyURL
	m.sentVerify++
	return m.sendErr
}

func (m *mockMailer) SendPasswordResetEmail(toEmail, toName, resetURL string) error {
	m.resetTo = toEmail
	m.resetURL = resetURL
	m.sentReset++
	return m.sendErr
}

type publishedEvent struct {
	subject string
	data    any
}

type mockPublisher struct {
	published []publishedEvent
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, subject string, data any) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, publishedEvent{subject: subject, data: data})
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) subjects() []string {
	var out []string
	for _, e := range m.published {
		out = append(out, e.subject)
	}
	return out
}

type mockBookingRepo struct {
	nextID   int64
	bookings map[int64]*domain.Booking
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{nextID: 1, bookings: make(map[int64]*domain.Booking)}
}

func (m *mockBookingRepo) Create(_ context.Context, userID int64, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	b := &domain.Booking{
		ID:            m.nextID,
		UserID:        userID,
		DestinationID: req.DestinationID,
		TravelerCount: req.TravelerCount,
		TotalPrice:    req.TotalPrice,
		Status:        domain.BookingPending,
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     time.Now(),
	}
	m.nextID++
	m.bookings[b.ID] = b
	return b, nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	return m.bookings[id], nil
}

func (m *mockBookingRepo) ListByUser(_ context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) List(_ context.Context, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range m.bookings {
		if status == nil || b.Status == *status {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) Confirm(_ context.Context, id int64, transactionCode string) (bool, error) {
	b, ok := m.bookings[id]
	if !ok || b.Status != domain.BookingPending {
		return false, nil
	}
	b.Status = domain.BookingConfirmed
	b.TransactionID = &transactionCode
	return true, nil
}

func (m *mockBookingRepo) Cancel(_ context.Context, id int64) (bool, error) {
	b, ok := m.bookings[id]
	if !ok || b.Status != domain.BookingPending {
		return false, nil
	}
	b.Status = domain.BookingCancelled
	return true, nil
}

func (m *mockBookingRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.bookings[id]; !ok {
		return fmt.Errorf("booking %d not found", id)
	}
	delete(m.bookings, id)
	return nil
}

type mockDestinationRepo struct {
	destinations map[int64]*domain.Destination
}

func newMockDestinationRepo() *mockDestinationRepo {
	return &mockDestinationRepo{destinations: make(map[int64]*domain.Destination)}
}

func (m *mockDestinationRepo) Create(_ context.Context, in *domain.DestinationInput, images []string) (*domain.Destination, error) {
	id := int64(len(m.destinations) + 1)
	d := &domain.Destination{
		ID: id, Title: in.Title, Location: in.Location, Price: in.Price,
		Duration: in.Duration, GroupSize: in.GroupSize, IsActive: in.IsActive,
		Images: images,
	}
	m.destinations[id] = d
	return d, nil
}

func (m *mockDestinationRepo) GetByID(_ context.Context, id int64) (*domain.Destination, error) {
	return m.destinations[id], nil
}

func (m *mockDestinationRepo) List(_ context.Context, activeOnly bool, limit, offset int) ([]domain.Destination, error) {
	var out []domain.Destination
	for _, d := range m.destinations {
		if !activeOnly || d.IsActive {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockDestinationRepo) Update(_ context.Context, id int64, in *domain.DestinationInput, newImages []string) (*domain.Destination, error) {
	d, ok := m.destinations[id]
	if !ok {
		return nil, nil
	}
	d.Title = in.Title
	d.Location = in.Location
	d.Price = in.Price
	d.IsActive = in.IsActive
	d.Images = append(d.Images, newImages...)
	return d, nil
}

func (m *mockDestinationRepo) RemoveImage(_ context.Context, id int64, filename string) (bool, error) {
	d, ok := m.destinations[id]
	if !ok {
		return false, nil
	}
	for i, img := range d.Images {
		if img == filename {
			d.Images = append(d.Images[:i], d.Images[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockDestinationRepo) Delete(_ context.Context, id int64) error {
	delete(m.destinations, id)
	return nil
}
