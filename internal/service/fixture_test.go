package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/internal/repository"
	"github.com/noah-isme/smart-student-api/pkg/events"
	"github.com/noah-isme/smart-student-api/pkg/storage"
)

var (
	viewerJorge = models.Viewer{Username: "jorge", Role: models.RoleTeacher}
	viewerAna   = models.Viewer{Username: "ana", Role: models.RoleTeacher}
	viewerMaria = models.Viewer{Username: "maria", Role: models.RoleStudent}
	viewerPedro = models.Viewer{Username: "pedro", Role: models.RoleStudent}
	viewerLucia = models.Viewer{Username: "lucia", Role: models.RoleStudent}
	viewerAdmin = models.Viewer{Username: "root", Role: models.RoleAdmin}
)

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(_ context.Context, evt events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *eventRecorder) names() []events.Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Name, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

func (r *eventRecorder) count(name events.Name) int {
	n := 0
	for _, got := range r.names() {
		if got == name {
			n++
		}
	}
	return n
}

type fixture struct {
	store         *repository.MemoryStore
	repos         *repository.Repositories
	bus           *events.Bus
	recorder      *eventRecorder
	metrics       *MetricsService
	notifications *NotificationService
	attachments   *AttachmentService
	tasks         *TaskService
	comments      *CommentService
	clock         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := repository.NewMemoryStore()
	repos := repository.New(store, "smart_student", nil)
	require.NoError(t, repos.Users.Replace(ctx, []models.User{
		{Username: "root", Role: models.RoleAdmin},
		{Username: "jorge", DisplayName: "Jorge", Role: models.RoleTeacher, ActiveCourses: []string{"lit-10"}},
		{Username: "ana", DisplayName: "Ana", Role: models.RoleTeacher, ActiveCourses: []string{"bio-10"}},
		{Username: "maria", DisplayName: "Maria", Role: models.RoleStudent, ActiveCourses: []string{"lit-10", "bio-10"}},
		{Username: "pedro", DisplayName: "Pedro", Role: models.RoleStudent, ActiveCourses: []string{"lit-10"}},
		{Username: "lucia", DisplayName: "Lucia", Role: models.RoleStudent, ActiveCourses: []string{"bio-10"}},
	}))

	objects, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	bus := events.NewBus(nil)
	metrics := NewMetricsService()
	metrics.Register(bus)
	recorder := &eventRecorder{}
	bus.SubscribeAll(recorder.record)

	f := &fixture{store: store, repos: repos, bus: bus, recorder: recorder, metrics: metrics, clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	now := func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}

	f.notifications = NewNotificationService(repos.Notifications, repos.Users, bus, metrics, nil)
	f.notifications.now = now
	f.notifications.Register(bus)

	signer := storage.NewSignedURLSigner("secret", time.Hour)
	f.attachments = NewAttachmentService(objects, signer, repos.Comments, "/api/v1/attachments", 1024, nil)

	f.tasks = NewTaskService(repos.Tasks, repos.Comments, repos.Users, f.attachments, bus, nil, nil)
	f.tasks.now = now
	f.comments = NewCommentService(repos.Comments, repos.Tasks, repos.Users, f.attachments, bus, nil, nil)
	f.comments.now = now
	return f
}

func (f *fixture) allNotifications(t *testing.T) []models.Notification {
	t.Helper()
	items, err := f.repos.Notifications.List(context.Background())
	require.NoError(t, err)
	return items
}
