package database_test

import (
	"context"
	"encoding/json"
	"testing"

	"prefect-admin/internal/config"
	"prefect-admin/internal/database"
	"prefect-admin/internal/models"
	"prefect-admin/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestOpenSQLite(t *testing.T) {
	db, err := database.Open(&config.Config{
		DBDriver:          "sqlite",
		DBDSN:             "file:open_test?mode=memory&cache=shared",
		DBConnectAttempts: 1,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	assert.True(t, db.Migrator().HasTable(&models.PrefectOpinion{}))
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestSeedIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	require.NoError(t, database.Seed(ctx, db, "root", "RootPass1!"))
	require.NoError(t, database.Seed(ctx, db, "root", "RootPass1!"))

	var users []models.User
	require.NoError(t, db.Order("id").Find(&users).Error)
	require.Len(t, users, 6)

	byName := map[string]models.User{}
	for _, u := range users {
		byName[u.Username] = u
	}
	admin, found := byName["root"]
	require.True(t, found)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("RootPass1!")))

	for name, role := range map[string]models.UserRole{
		"creator":   models.RoleCreator,
		"engineer":  models.RoleEngineer,
		"reviewer2": models.RoleSecondReviewer,
		"reviewer3": models.RoleThirdReviewer,
		"archiver":  models.RoleArchiver,
	} {
		assert.Equal(t, role, byName[name].Role, name)
	}
}

func TestCreateAuditLog(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "auditor", models.RoleCreator)

	database.CreateAuditLog(ctx, db, u.ID, "prefect", 42, "archive", "archived", map[string]any{"from": "05", "to": "06"})
	// anonymous actions are not recorded
	database.CreateAuditLog(ctx, db, 0, "prefect", 42, "archive", "", nil)

	var logs []models.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "archive", logs[0].Action)
	assert.EqualValues(t, 42, logs[0].EntityID)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(logs[0].Payload, &payload))
	assert.Equal(t, "06", payload["to"])
}

func TestCreateAuditLogNeverFails(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, db.Migrator().DropTable(&models.AuditLog{}))

	assert.NotPanics(t, func() {
		database.CreateAuditLog(context.Background(), db, 1, "project", 1, "create", "", nil)
	})
}
