package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingvionio/fullstack/internal/application/uow"
	"github.com/ingvionio/fullstack/internal/domain/achievement"
	"github.com/ingvionio/fullstack/internal/domain/industry"
	"github.com/ingvionio/fullstack/internal/domain/mark"
	"github.com/ingvionio/fullstack/internal/domain/point"
	"github.com/ingvionio/fullstack/internal/domain/shared"
	"github.com/ingvionio/fullstack/internal/domain/user"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fixture struct {
	user *user.User
	ind  *industry.Industry
	sub  *industry.SubIndustry
	pt   *point.Point
}

func seed(t *testing.T, ctx context.Context, r uow.Repositories) fixture {
	t.Helper()
	u := &user.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h", Level: 1, CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, r.Users.Create(ctx, u))

	ind := &industry.Industry{Name: "Медицина", CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, r.Industries.Create(ctx, ind))

	sub := &industry.SubIndustry{Name: "Клиники", IndustryID: ind.ID, BaseScore: 3, CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, r.SubIndustries.Create(ctx, sub))

	pt := &point.Point{
		Name:          "Клиника №1",
		Coordinates:   shared.Coordinates{Latitude: 43.2, Longitude: 76.9},
		IndustryID:    ind.ID,
		SubIndustryID: sub.ID,
		CreatorID:     &u.ID,
		CreatedAt:     t0,
		UpdatedAt:     t0,
	}
	require.NoError(t, r.Points.Create(ctx, pt))

	return fixture{user: u, ind: ind, sub: sub, pt: pt}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.Migrate(context.Background()))
}

func TestUsers_CRUDAndConflicts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.Do(ctx, func(ctx context.Context, r uow.Repositories) error {
		f := seed(t, ctx, r)

		dup := &user.User{Username: "alice", Email: "other@example.com", PasswordHash: "h", Level: 1, CreatedAt: t0, UpdatedAt: t0}
		assert.ErrorIs(t, r.Users.Create(ctx, dup), shared.ErrAlreadyExists)

		byEmail, err := r.Users.GetByLogin(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, f.user.ID, byEmail.ID)
		assert.Equal(t, t0, byEmail.CreatedAt)

		taken, err := r.Users.ExistsOther(ctx, f.user.ID+1, "alice", "")
		require.NoError(t, err)
		assert.True(t, taken)

		self, err := r.Users.ExistsOther(ctx, f.user.ID, "alice", "alice@example.com")
		require.NoError(t, err)
		assert.False(t, self)

		f.user.SetAvatar("/media/avatars/user_1/a.png")
		f.user.SetAvatar("/media/avatars/user_1/b.png")
		f.user.XP = 120
		f.user.Level = 2
		require.NoError(t, r.Users.Update(ctx, f.user))

		got, err := r.Users.GetByID(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, 120, got.XP)
		assert.Equal(t, []string{"/media/avatars/user_1/a.png"}, got.AvatarHistory)
		require.NotNil(t, got.AvatarURL)
		assert.Equal(t, "/media/avatars/user_1/b.png", *got.AvatarURL)

		above, total, err := r.Users.Standing(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 1}, []int{above, total})
		above, _, err = r.Users.Standing(ctx, 120)
		require.NoError(t, err)
		assert.Zero(t, above)
		return nil
	})
	require.NoError(t, err)
}

func TestUsers_DeleteCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.Do(ctx, func(ctx context.Context, r uow.Repositories) error {
		f := seed(t, ctx, r)
		m := &mark.Mark{PointID: f.pt.ID, UserID: &f.user.ID, QuestionIDs: []int64{1}, Answers: []int{5}, Weights: []float64{1}, TotalScore: 5, CreatedAt: t0, UpdatedAt: t0}
		require.NoError(t, r.Marks.Create(ctx, m))

		require.NoError(t, r.Users.Delete(ctx, f.user.ID))

		_, err := r.Points.GetByID(ctx, f.pt.ID)
		assert.ErrorIs(t, err, shared.ErrPointNotFound)
		_, err = r.Marks.GetByID(ctx, m.ID)
		assert.ErrorIs(t, err, shared.ErrMarkNotFound)
		assert.ErrorIs(t, r.Users.Delete(ctx, f.user.ID), shared.ErrUserNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestIndustries_InUseAndCascade(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.Do(ctx, func(ctx context.Context, r uow.Repositories) error {
		f := seed(t, ctx, r)

		assert.ErrorIs(t, r.Industries.Delete(ctx, f.ind.ID), shared.ErrIndustryInUse)
		assert.ErrorIs(t, r.SubIndustries.Delete(ctx, f.sub.ID), shared.ErrSubIndustryInUse)

		other := &industry.Industry{Name: "Аптеки", CreatedAt: t0, UpdatedAt: t0}
		require.NoError(t, r.Industries.Create(ctx, other))
		c := &industry.Criteria{Text: "Чистота", IndustryID: other.ID, CreatedAt: t0, UpdatedAt: t0}
		require.NoError(t, r.Criteria.Create(ctx, c))

		dup := &industry.Criteria{Text: "Чистота", IndustryID: other.ID, CreatedAt: t0, UpdatedAt: t0}
		assert.ErrorIs(t, r.Criteria.Create(ctx, dup), shared.ErrCriteriaAlreadyExists)

		require.NoError(t, r.Industries.Delete(ctx, other.ID))
		_, err := r.Criteria.GetByID(ctx, c.ID)
		assert.ErrorIs(t, err, shared.ErrCriteriaNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestPoints_UpdateDoesNotTouchRating(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.Do(ctx, func(ctx context.Context, r uow.Repositories) error {
		f := seed(t, ctx, r)
		require.NoError(t, r.Points.UpdateRating(ctx, f.pt.ID, 3.75))

		f.pt.Name = "Клиника №2"
		f.pt.Rating = 0
		require.NoError(t, r.Points.Update(ctx, f.pt))

		got, err := r.Points.GetByID(ctx, f.pt.ID)
		require.NoError(t, err)
		assert.Equal(t, "Клиника №2", got.Name)
		assert.Equal(t, 3.75, got.Rating)

		list, err := r.Points.List(ctx, point.Filter{SubIndustryID: &f.sub.ID})
		require.NoError(t, err)
		assert.Len(t, list, 1)

		n, err := r.Points.CountByCreator(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return nil
	})
	require.NoError(t, err)
}

func TestMarks_RoundTripAndQueries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.Do(ctx, func(ctx context.Context, r uow.Repositories) error {
		f := seed(t, ctx, r)
		comment := "Отлично"
		first := &mark.Mark{PointID: f.pt.ID, UserID: &f.user.ID, QuestionIDs: []int64{1, 2}, Answers: []int{4, 5}, Weights: []float64{1, 1}, TotalScore: 4.5, Photos: []string{}, CreatedAt: t0, UpdatedAt: t0}
		second := &mark.Mark{PointID: f.pt.ID, UserID: &f.user.ID, QuestionIDs: []int64{1}, Answers: []int{3}, Weights: []float64{2}, Comment: &comment, TotalScore: 3, CreatedAt: t0.Add(time.Hour), UpdatedAt: t0.Add(time.Hour)}
		require.NoError(t, r.Marks.Create(ctx, first))
		require.NoError(t, r.Marks.Create(ctx, second))

		got, err := r.Marks.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, got.QuestionIDs)
		assert.Equal(t, []float64{1, 1}, got.Weights)
		assert.Nil(t, got.Comment)
		assert.Empty(t, got.Photos)

		require.NoError(t, r.Marks.UpdatePhotos(ctx, first.ID, []string{"/media/marks/mark_1/x.jpg"}))
		got, err = r.Marks.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"/media/marks/mark_1/x.jpg"}, got.Photos)

		scores, err := r.Marks.ScoresByPoint(ctx, f.pt.ID)
		require.NoError(t, err)
		assert.Equal(t, []float64{4.5, 3}, scores)

		comments, err := r.Marks.ListCommentsByUser(ctx, f.user.ID)
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, second.ID, comments[0].ID)

		recent, err := r.Marks.ListRecentByUser(ctx, f.user.ID, 1)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, "Клиника №1", recent[0].PointName)
		assert.Equal(t, t0.Add(time.Hour), recent[0].CreatedAt)

		ids, err := r.Marks.PointIDsByUser(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{f.pt.ID}, ids)
		return nil
	})
	require.NoError(t, err)
}

func TestProgress_CompletedOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.Do(ctx, func(ctx context.Context, r uow.Repositories) error {
		f := seed(t, ctx, r)
		a := &achievement.Achievement{Name: "Первый отзыв", Type: achievement.TypeMarksCount, RequirementValue: 1, XPReward: 25, CreatedAt: t0}
		require.NoError(t, r.Achievements.Create(ctx, a))
		assert.ErrorIs(t, r.Achievements.Create(ctx, &achievement.Achievement{Name: "Первый отзыв", Type: achievement.TypeMarksCount, CreatedAt: t0}), shared.ErrAlreadyExists)

		ua := achievement.NewUserAchievement(f.user.ID, a.ID, t0)
		require.NoError(t, r.Progress.Create(ctx, ua))
		require.True(t, ua.Advance(1, 1, t0.Add(time.Minute)))
		require.NoError(t, r.Progress.Save(ctx, ua))

		stored, err := r.Progress.Get(ctx, f.user.ID, a.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsCompleted)
		require.NotNil(t, stored.CompletedAt)
		assert.Equal(t, t0.Add(time.Minute), *stored.CompletedAt)

		unlocked, err := r.Progress.ListRecentCompleted(ctx, f.user.ID, 10)
		require.NoError(t, err)
		require.Len(t, unlocked, 1)
		assert.Equal(t, "Первый отзыв", unlocked[0].Achievement.Name)

		_, err = r.Progress.Get(ctx, f.user.ID, a.ID+100)
		assert.ErrorIs(t, err, shared.ErrUserAchievementNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestDo_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.Do(ctx, func(ctx context.Context, r uow.Repositories) error {
		require.NoError(t, r.Industries.Create(ctx, &industry.Industry{Name: "Временная", CreatedAt: t0, UpdatedAt: t0}))
		return shared.ErrInvalidState
	})
	require.ErrorIs(t, err, shared.ErrInvalidState)

	err = db.DoReadOnly(ctx, func(ctx context.Context, r uow.Repositories) error {
		list, err := r.Industries.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
		return nil
	})
	require.NoError(t, err)
}

func TestWithTx_RollbackFailureKeepsErrorKind(t *testing.T) {
	db := newTestDB(t)

	err := db.WithTx(context.Background(), func(tx *sql.Tx) error {
		require.NoError(t, tx.Rollback())
		return shared.ErrPointNotFound
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrPointNotFound)
	assert.ErrorIs(t, err, sql.ErrTxDone)
	assert.True(t, shared.IsNotFound(err))
}
