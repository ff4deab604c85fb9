//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/newsroom-api/server/config"
	"github.com/newsroom-api/server/internal/db"
	"github.com/newsroom-api/server/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	serverPort = 18400
	password   = "Secret12"
)

var baseURL = fmt.Sprintf("http://localhost:%d", serverPort)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadTestConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := waitForMongo(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "mongo not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := db.MigrateUp(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := server.New(ctx, cfg, slog.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}
	go func() {
		_ = srv.Start()
	}()

	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown(context.Background())
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown(context.Background())
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestNewsroomFlow(t *testing.T) {
	suffix := time.Now().UnixNano()
	adminEmail := fmt.Sprintf("admin_%d@example.com", suffix)
	reporterEmail := fmt.Sprintf("reporter_%d@example.com", suffix)

	register(t, "Admin", adminEmail)
	register(t, "Reporter", reporterEmail)
	setRole(t, adminEmail, "admin")
	setRole(t, reporterEmail, "reporter")

	adminToken := login(t, adminEmail)
	reporterToken := login(t, reporterEmail)

	imageURL := uploadImage(t, reporterToken)
	assert.Contains(t, imageURL, "/articles/")

	var created struct {
		Article struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"article"`
	}
	status := call(t, http.MethodPost, "/api/article/create", reporterToken, map[string]any{
		"title":    "Council approves budget",
		"content":  "<p>The vote passed.</p>",
		"category": "politics",
		"images":   []string{imageURL},
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "draft", created.Article.Status)

	articlePath := "/api/article/whole-article/" + created.Article.ID
	assert.Equal(t, http.StatusNotFound, call(t, http.MethodGet, articlePath, "", nil, nil))

	status = call(t, http.MethodPut, "/api/admin/update-article-status/"+created.Article.ID, adminToken,
		map[string]string{"status": "accepted"}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, http.StatusOK, call(t, http.MethodGet, articlePath, "", nil, nil))

	var comment struct {
		Comment struct {
			UserName string `json:"userName"`
		} `json:"comment"`
	}
	status = call(t, http.MethodPost, "/api/comment/create", reporterToken,
		map[string]string{"articleId": created.Article.ID, "comment": "First!"}, &comment)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Reporter", comment.Comment.UserName)

	status = call(t, http.MethodDelete, "/api/article/delete-article/"+created.Article.ID, adminToken, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, http.StatusNotFound, call(t, http.MethodGet, articlePath, adminToken, nil, nil))
}

func TestVisitCounterUnderLoad(t *testing.T) {
	var before struct {
		Count int64 `json:"count"`
	}
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, "/api/count/visit-count", "", nil, &before))

	const n = 40
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, http.StatusOK, call(t, http.MethodPost, "/api/count/update-visit-count", "", nil, nil))
		}()
	}
	wg.Wait()

	var after struct {
		Count int64 `json:"count"`
	}
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, "/api/count/visit-count", "", nil, &after))
	assert.Equal(t, before.Count+n, after.Count)
}

func register(t *testing.T, name, email string) {
	t.Helper()
	status := call(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	}, nil)
	require.Equal(t, http.StatusCreated, status)
}

func login(t *testing.T, email string) string {
	t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	status := call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	}, &resp)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// setRole promotes an account directly in the database; there is no API
// for granting admin.
func setRole(t *testing.T, email, role string) {
	t.Helper()
	cfg, err := loadTestConfig()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, database, err := db.Open(ctx, cfg)
	require.NoError(t, err)
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	res, err := database.Collection("users").UpdateOne(ctx,
		bson.D{{Key: "email", Value: email}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "role", Value: role}}}},
	)
	require.NoError(t, err)
	require.EqualValues(t, 1, res.MatchedCount)
}

func uploadImage(t *testing.T, token string) string {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewNRGBA(image.Rect(0, 0, 64, 48))))

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/article/upload-image", &body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var parsed struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return parsed.URL
}

func call(t *testing.T, method, path, token string, payload, out any) int {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func loadTestConfig() (config.Config, error) {
	defaults := map[string]string{
		"PORT":             fmt.Sprintf("%d", serverPort),
		"MONGO_URI":        "mongodb://localhost:27017",
		"MONGO_DB":         "newsroom_e2e",
		"JWT_ACCESS_KEY":   "e2e-access",
		"JWT_REFRESH_KEY":  "e2e-refresh",
		"STORAGE_BACKEND":  "minio",
		"MINIO_ENDPOINT":   "localhost:9000",
		"MINIO_ACCESS_KEY": "minioadmin",
		"MINIO_SECRET_KEY": "minioadmin",
		"MINIO_BUCKET":     "newsroom-e2e",
		"AUTH_RATE_LIMIT":  "0",
	}
	for key, value := range defaults {
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
	return config.LoadConfig()
}

func waitForMongo(ctx context.Context, cfg config.Config) error {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		client, _, err := db.Open(ctx, cfg)
		if err == nil {
			return client.Disconnect(ctx)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("mongo ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
