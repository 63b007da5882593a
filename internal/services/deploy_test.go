package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"sitehost/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeployer(t *testing.T) (*Deployer, sqlmock.Sqlmock) {
	t.Helper()
	registry, mock := newMockRegistry(t)
	return NewDeployer(registry, newTestStore(t), NewFetcher(5*time.Second, 1<<20)), mock
}

func stringUpload(name, body string) UploadFile {
	return UploadFile{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

func siteDirCount(t *testing.T, store *Store) int {
	t.Helper()
	dirs, err := store.Dirs()
	require.NoError(t, err)
	return len(dirs)
}

func TestDeployCodeWritesFileAndRow(t *testing.T) {
	deployer, mock := newTestDeployer(t)
	mock.ExpectExec(`INSERT INTO hosted_sites`).
		WithArgs(sqlmock.AnyArg(), DefaultCodeName, models.SiteTypeCode, 1, int64(11)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	siteID, err := deployer.DeployCode(context.Background(), "", "", "<h1>hi</h1>")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	body, err := os.ReadFile(deployer.Store.SitePath(siteID) + "/index.html")
	require.NoError(t, err)
	assert.Equal(t, "<h1>hi</h1>", string(body))
}

func TestDeployCodeValidation(t *testing.T) {
	deployer, _ := newTestDeployer(t)

	_, err := deployer.DeployCode(context.Background(), "", "", "")
	var serr ServiceError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusBadRequest, serr.Status)
	assert.Equal(t, "Code is required", serr.Message)

	_, err = deployer.DeployCode(context.Background(), "", "../../etc/passwd", "x")
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "Invalid filename", serr.Message)
	assert.Equal(t, 0, siteDirCount(t, deployer.Store))
}

func TestDeployRemovesDirectoryWhenInsertFails(t *testing.T) {
	deployer, mock := newTestDeployer(t)
	mock.ExpectExec(`INSERT INTO hosted_sites`).WillReturnError(errors.New("connection refused"))

	_, err := deployer.DeployCode(context.Background(), "p", "page.html", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert site")
	assert.Equal(t, 0, siteDirCount(t, deployer.Store))
}

func TestDeployFiles(t *testing.T) {
	deployer, mock := newTestDeployer(t)
	mock.ExpectExec(`INSERT INTO hosted_sites`).
		WithArgs(sqlmock.AnyArg(), "Portfolio", models.SiteTypeUpload, 2, int64(6)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	siteID, err := deployer.DeployFiles(context.Background(), "Portfolio", []UploadFile{
		stringUpload("index.html", "<p>"),
		stringUpload("app.js", "1+1"),
	})
	require.NoError(t, err)
	files, err := deployer.Store.List(siteID)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.js", "index.html"}, files)
}

func TestDeployFilesValidation(t *testing.T) {
	deployer, _ := newTestDeployer(t)

	_, err := deployer.DeployFiles(context.Background(), "", nil)
	var serr ServiceError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "No files uploaded", serr.Message)

	_, err = deployer.DeployFiles(context.Background(), "", []UploadFile{stringUpload("../x.html", "x")})
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusBadRequest, serr.Status)
}

func TestDeployFilesOpenFailureCleansUp(t *testing.T) {
	deployer, _ := newTestDeployer(t)
	broken := UploadFile{Name: "a.html", Open: func() (io.ReadCloser, error) { return nil, errors.New("gone") }}

	_, err := deployer.DeployFiles(context.Background(), "", []UploadFile{broken})
	require.Error(t, err)
	assert.Equal(t, 0, siteDirCount(t, deployer.Store))
}

func TestDeployURL(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[1,2,3]`))
	}))
	defer upstream.Close()

	deployer, mock := newTestDeployer(t)
	mock.ExpectExec(`INSERT INTO hosted_sites`).
		WithArgs(sqlmock.AnyArg(), DefaultURLName, models.SiteTypeURL, 1, int64(7)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	siteID, err := deployer.DeployURL(context.Background(), "", upstream.URL+"/api")
	require.NoError(t, err)
	files, err := deployer.Store.List(siteID)
	require.NoError(t, err)
	assert.Equal(t, []string{"data.json"}, files)

	_, err = deployer.DeployURL(context.Background(), "", upstream.URL+"/gone")
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch: Service Unavailable", err.Error())
	assert.Equal(t, 1, siteDirCount(t, deployer.Store))
}
