//go:build integration

package user_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/project-hub/internal/config"
	"github.com/vasiliy-maslov/project-hub/internal/db"
	"github.com/vasiliy-maslov/project-hub/internal/user"
)

var testDB *pgxpool.Pool

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestMain(m *testing.M) {
	cfg := config.PostgresConfig{
		Host:            getenv("DB_HOST_TEST", "localhost"),
		Port:            getenv("DB_PORT_TEST", "5432"),
		User:            getenv("DB_USER_TEST", "postgres"),
		Password:        getenv("DB_PASSWORD_TEST", "postgres"),
		DBName:          getenv("DB_NAME_TEST", "project_hub"),
		SSLMode:         getenv("DB_SSLMODE_TEST", "disable"),
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MigrationsPath:  "../../migrations",
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer connectCancel()

	pg, err := db.New(connectCtx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("db_host", cfg.Host).Str("db_port", cfg.Port).Msg("Failed to connect to test database")
	}

	if err := pg.Migrate(cfg); err != nil {
		pg.Close()
		log.Fatal().Err(err).Msg("Failed to migrate test database")
	}
	testDB = pg.Pool

	exitCode := m.Run()

	pg.Close()
	os.Exit(exitCode)
}

func truncateUsersTable(tb testing.TB, pool *pgxpool.Pool) {
	tb.Helper()
	_, err := pool.Exec(context.Background(), "TRUNCATE TABLE users RESTART IDENTITY CASCADE")
	require.NoError(tb, err, "failed to truncate users table")
}

func uniqueEmail(tb testing.TB) string {
	tb.Helper()
	return fmt.Sprintf("user-%s@example.com", uuid.Must(uuid.NewV4()))
}

func newTestUser(tb testing.TB) user.User {
	return user.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        uniqueEmail(tb),
		Description:  strPtr("integration fixture"),
		Program:      strPtr("CS"),
		PasswordHash: "hashed_password",
	}
}

func TestUserRepository_Create(t *testing.T) {
	repo := user.NewRepository(testDB)
	t.Cleanup(func() { truncateUsersTable(t, testDB) })

	testUser := newTestUser(t)

	createdID, err := repo.Create(context.Background(), &testUser)
	require.NoError(t, err)
	require.NotZero(t, createdID)
	require.Equal(t, testUser.ID, createdID)
	require.False(t, testUser.CreatedAt.IsZero())
}

func TestUserRepository_Create_EmailExists(t *testing.T) {
	repo := user.NewRepository(testDB)
	t.Cleanup(func() { truncateUsersTable(t, testDB) })

	user1 := newTestUser(t)
	user2 := newTestUser(t)
	user2.Email = user1.Email

	_, err := repo.Create(context.Background(), &user1)
	require.NoError(t, err)

	createdID, err := repo.Create(context.Background(), &user2)
	require.ErrorIs(t, err, user.ErrEmailExists)
	require.Zero(t, createdID)
}

func TestUserRepository_GetByID_Success(t *testing.T) {
	repo := user.NewRepository(testDB)
	t.Cleanup(func() { truncateUsersTable(t, testDB) })

	testUser := newTestUser(t)
	_, err := repo.Create(context.Background(), &testUser)
	require.NoError(t, err)

	foundUser, err := repo.GetByID(context.Background(), testUser.ID)
	require.NoError(t, err)
	require.Equal(t, testUser.ID, foundUser.ID)
	require.Equal(t, testUser.FirstName, foundUser.FirstName)
	require.Equal(t, testUser.Email, foundUser.Email)
	require.Equal(t, *testUser.Description, *foundUser.Description)
	require.Equal(t, *testUser.Program, *foundUser.Program)
	require.False(t, foundUser.CreatedAt.IsZero())

	dto, err := user.ToDTO(foundUser)
	require.NoError(t, err)
	require.Equal(t, user.FormatCreatedAt(foundUser.CreatedAt), *dto.CreatedAt)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo := user.NewRepository(testDB)
	t.Cleanup(func() { truncateUsersTable(t, testDB) })

	foundUser, err := repo.GetByID(context.Background(), 999999)
	require.ErrorIs(t, err, user.ErrNotFound)
	require.Nil(t, foundUser)
}

func TestUserRepository_GetByEmail_CaseInsensitive(t *testing.T) {
	repo := user.NewRepository(testDB)
	t.Cleanup(func() { truncateUsersTable(t, testDB) })

	testUser := newTestUser(t)
	_, err := repo.Create(context.Background(), &testUser)
	require.NoError(t, err)

	foundUser, err := repo.GetByEmail(context.Background(), "USER-"+testUser.Email[len("user-"):])
	require.NoError(t, err)
	require.Equal(t, testUser.ID, foundUser.ID)
}

func TestUserRepository_List(t *testing.T) {
	repo := user.NewRepository(testDB)
	t.Cleanup(func() { truncateUsersTable(t, testDB) })

	for i := 0; i < 3; i++ {
		u := newTestUser(t)
		_, err := repo.Create(context.Background(), &u)
		require.NoError(t, err)
	}

	users, err := repo.List(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Less(t, users[0].ID, users[1].ID)

	users, err = repo.List(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestUserRepository_Update_Success(t *testing.T) {
	repo := user.NewRepository(testDB)
	t.Cleanup(func() { truncateUsersTable(t, testDB) })

	initialUser := newTestUser(t)
	_, err := repo.Create(context.Background(), &initialUser)
	require.NoError(t, err)

	userToUpdate := user.User{
		ID:        initialUser.ID,
		FirstName: "Updated First",
		LastName:  "Updated Last",
		Email:     initialUser.Email,
		Program:   strPtr("Math"),
	}

	err = repo.Update(context.Background(), &userToUpdate)
	require.NoError(t, err)

	foundUser, err := repo.GetByID(context.Background(), initialUser.ID)
	require.NoError(t, err)
	require.Equal(t, "Updated First", foundUser.FirstName)
	require.Equal(t, "Updated Last", foundUser.LastName)
	require.Nil(t, foundUser.Description)
	require.Equal(t, "Math", *foundUser.Program)
	require.Equal(t, initialUser.PasswordHash, foundUser.PasswordHash)
	require.True(t, foundUser.UpdatedAt.After(foundUser.CreatedAt))
}

func TestUserRepository_Update_NotFound(t *testing.T) {
	repo := user.NewRepository(testDB)
	t.Cleanup(func() { truncateUsersTable(t, testDB) })

	nonExistentUser := newTestUser(t)
	nonExistentUser.ID = 999999

	err := repo.Update(context.Background(), &nonExistentUser)
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestUserRepository_Update_EmailExists(t *testing.T) {
	repo := user.NewRepository(testDB)
	t.Cleanup(func() { truncateUsersTable(t, testDB) })

	user1 := newTestUser(t)
	_, err := repo.Create(context.Background(), &user1)
	require.NoError(t, err)

	user2 := newTestUser(t)
	_, err = repo.Create(context.Background(), &user2)
	require.NoError(t, err)

	user1.Email = user2.Email
	user1.PasswordHash = ""

	err = repo.Update(context.Background(), &user1)
	require.ErrorIs(t, err, user.ErrEmailExists)
}

func TestUserRepository_Delete(t *testing.T) {
	repo := user.NewRepository(testDB)
	t.Cleanup(func() { truncateUsersTable(t, testDB) })

	createdUser := newTestUser(t)
	_, err := repo.Create(context.Background(), &createdUser)
	require.NoError(t, err)

	err = repo.Delete(context.Background(), createdUser.ID)
	require.NoError(t, err)

	foundUser, err := repo.GetByID(context.Background(), createdUser.ID)
	require.ErrorIs(t, err, user.ErrNotFound)
	require.Nil(t, foundUser)

	err = repo.Delete(context.Background(), createdUser.ID)
	require.ErrorIs(t, err, user.ErrNotFound)
}
