package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"moswords/config"
	"moswords/internal/api"
	"moswords/internal/conversation"
	"moswords/internal/cryptobox"
	devicerepo "moswords/internal/device/repository"
	deviceuc "moswords/internal/device/usecase"
	enveloperepo "moswords/internal/envelope/repository"
	envelopeuc "moswords/internal/envelope/usecase"
	messagerepo "moswords/internal/message/repository"
	messageuc "moswords/internal/message/usecase"
	"moswords/internal/metrics"
	"moswords/pkg/logger"
	"moswords/pkg/utils"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	devices := devicerepo.NewMemoryDeviceRepository()
	h := NewHandler(Deps{
		Devices:   deviceuc.NewDeviceUsecase(devices, logger.Logger{}),
		Envelopes: envelopeuc.NewEnvelopeUsecase(enveloperepo.NewMemoryEnvelopeRepository(), devices, logger.Logger{}, true),
		Messages:  messageuc.NewMessageUsecase(messagerepo.NewMemoryMessageRepository(), logger.Logger{}),
		Metrics:   m,
		Logger:    logger.NewNop(),
		JWTSecret: testSecret,
	})
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv, m
}

func tokenFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := utils.GenerateJWTToken(userID, config.Config{JWT: config.JWT{Secret: testSecret, ExpiredIn: 3600}})
	require.NoError(t, err)
	return token
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func registerDevice(t *testing.T, srv *httptest.Server, token string) string {
	t.Helper()
	deviceID := uuid.NewString()
	resp := call(t, srv, http.MethodPost, "/v1/devices", token, api.RegisterDeviceRequest{
		DeviceID:  deviceID,
		PublicKey: bytes.Repeat([]byte{7}, cryptobox.KeySize),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return deviceID
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestAuthentication(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("missing header", func(t *testing.T) {
		resp := call(t, srv, http.MethodGet, "/v1/devices", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHENTICATED", decode[api.ErrorResponse](t, resp).Code)
	})

	t.Run("bad token", func(t *testing.T) {
		resp := call(t, srv, http.MethodGet, "/v1/devices", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := utils.GenerateJWTToken(uuid.New(), config.Config{JWT: config.JWT{Secret: "other", ExpiredIn: 3600}})
		require.NoError(t, err)
		resp := call(t, srv, http.MethodGet, "/v1/devices", token, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("health is public", func(t *testing.T) {
		resp := call(t, srv, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestDevices(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := uuid.New()
	token := tokenFor(t, alice)
	deviceID := uuid.NewString()
	pub := bytes.Repeat([]byte{7}, cryptobox.KeySize)

	resp := call(t, srv, http.MethodPost, "/v1/devices", token, api.RegisterDeviceRequest{DeviceID: deviceID, PublicKey: pub})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[api.DeviceKeyResponse](t, resp)
	assert.Equal(t, alice.String(), got.UserID)
	assert.Equal(t, deviceID, got.DeviceID)

	resp = call(t, srv, http.MethodGet, "/v1/devices?user_id="+alice.String()+"&user_id="+uuid.NewString(), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	keys := decode[[]api.DeviceKeyResponse](t, resp)
	require.Len(t, keys, 1)
	assert.Equal(t, pub, keys[0].PublicKey)

	t.Run("short public key", func(t *testing.T) {
		resp := call(t, srv, http.MethodPost, "/v1/devices", token, api.RegisterDeviceRequest{DeviceID: deviceID, PublicKey: []byte{1}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad user id", func(t *testing.T) {
		resp := call(t, srv, http.MethodGet, "/v1/devices?user_id=nope", token, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown field", func(t *testing.T) {
		resp := call(t, srv, http.MethodPost, "/v1/devices", token, map[string]any{"device_id": deviceID, "extra": 1})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("device id taken by another user", func(t *testing.T) {
		resp := call(t, srv, http.MethodPost, "/v1/devices", tokenFor(t, uuid.New()), api.RegisterDeviceRequest{
			DeviceID:  deviceID,
			PublicKey: bytes.Repeat([]byte{8}, cryptobox.KeySize),
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		resp = call(t, srv, http.MethodGet, "/v1/devices?user_id="+alice.String(), token, nil)
		keys := decode[[]api.DeviceKeyResponse](t, resp)
		require.Len(t, keys, 1)
		assert.Equal(t, pub, keys[0].PublicKey)
	})
}

func TestEnvelopes(t *testing.T) {
	srv, _ := newTestServer(t)
	token := tokenFor(t, uuid.New())
	writer := registerDevice(t, srv, token)
	reader := uuid.NewString()
	scope := "group:g1"
	sealed := bytes.Repeat([]byte{9}, cryptobox.SealedKeySize)

	put := api.PutEnvelopesRequest{
		Scope:    scope,
		DeviceID: writer,
		Entries: []api.EnvelopeEntry{
			{DeviceID: writer, SealedKey: sealed},
			{DeviceID: reader, SealedKey: sealed},
		},
	}

	resp := call(t, srv, http.MethodPost, "/v1/envelopes", token, put)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	q := url.Values{"scope": {scope}, "device_id": {reader}}
	resp = call(t, srv, http.MethodGet, "/v1/envelopes?"+q.Encode(), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decode[api.EnvelopeResponse](t, resp)
	assert.Equal(t, sealed, env.SealedKey)
	assert.Equal(t, writer, env.WriterDeviceID)

	t.Run("second minter conflicts", func(t *testing.T) {
		other := registerDevice(t, srv, token)
		resp := call(t, srv, http.MethodPost, "/v1/envelopes", token, api.PutEnvelopesRequest{
			Scope:    scope,
			DeviceID: other,
			Entries:  []api.EnvelopeEntry{{DeviceID: other, SealedKey: sealed}},
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "ALREADY_EXISTS", decode[api.ErrorResponse](t, resp).Code)
	})

	t.Run("missing envelope", func(t *testing.T) {
		q := url.Values{"scope": {scope}, "device_id": {uuid.NewString()}}
		resp := call(t, srv, http.MethodGet, "/v1/envelopes?"+q.Encode(), token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("wrong sealed length", func(t *testing.T) {
		resp := call(t, srv, http.MethodPost, "/v1/envelopes", token, api.PutEnvelopesRequest{
			Scope:    "group:g2",
			DeviceID: writer,
			Entries:  []api.EnvelopeEntry{{DeviceID: writer, SealedKey: []byte{1, 2, 3}}},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unregistered writer device", func(t *testing.T) {
		stray := uuid.NewString()
		resp := call(t, srv, http.MethodPost, "/v1/envelopes", token, api.PutEnvelopesRequest{
			Scope:    "group:g3",
			DeviceID: stray,
			Entries:  []api.EnvelopeEntry{{DeviceID: stray, SealedKey: sealed}},
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("bad scope", func(t *testing.T) {
		q := url.Values{"scope": {"nonsense"}, "device_id": {reader}}
		resp := call(t, srv, http.MethodGet, "/v1/envelopes?"+q.Encode(), token, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestEnvelopes_WriterMustBeCallersDevice(t *testing.T) {
	srv, _ := newTestServer(t)
	alice, bob := uuid.New(), uuid.New()
	aliceToken, bobToken := tokenFor(t, alice), tokenFor(t, bob)
	aliceDevice := registerDevice(t, srv, aliceToken)
	bobDevice := registerDevice(t, srv, bobToken)
	sealed := bytes.Repeat([]byte{9}, cryptobox.SealedKeySize)
	forged := bytes.Repeat([]byte{6}, cryptobox.SealedKeySize)
	dm := conversation.DirectMessage(alice.String(), bob.String()).String()

	// bob claims alice's device as the writer of a key for a fresh scope
	resp := call(t, srv, http.MethodPost, "/v1/envelopes", bobToken, api.PutEnvelopesRequest{
		Scope:    "group:g1",
		DeviceID: aliceDevice,
		Entries:  []api.EnvelopeEntry{{DeviceID: aliceDevice, SealedKey: forged}},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "PERMISSION_DENIED", decode[api.ErrorResponse](t, resp).Code)

	q := url.Values{"scope": {"group:g1"}, "device_id": {aliceDevice}}
	resp = call(t, srv, http.MethodGet, "/v1/envelopes?"+q.Encode(), aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// and cannot overwrite the envelope alice wrote for their dm
	resp = call(t, srv, http.MethodPost, "/v1/envelopes", aliceToken, api.PutEnvelopesRequest{
		Scope:    dm,
		DeviceID: aliceDevice,
		Entries: []api.EnvelopeEntry{
			{DeviceID: aliceDevice, SealedKey: sealed},
			{DeviceID: bobDevice, SealedKey: sealed},
		},
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = call(t, srv, http.MethodPost, "/v1/envelopes", bobToken, api.PutEnvelopesRequest{
		Scope:    dm,
		DeviceID: aliceDevice,
		Entries:  []api.EnvelopeEntry{{DeviceID: aliceDevice, SealedKey: forged}},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	q = url.Values{"scope": {dm}, "device_id": {aliceDevice}}
	resp = call(t, srv, http.MethodGet, "/v1/envelopes?"+q.Encode(), aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decode[api.EnvelopeResponse](t, resp)
	assert.Equal(t, sealed, env.SealedKey)
	assert.Equal(t, aliceDevice, env.WriterDeviceID)

	t.Run("outsider cannot key a dm", func(t *testing.T) {
		mallory := tokenFor(t, uuid.New())
		device := registerDevice(t, srv, mallory)
		resp := call(t, srv, http.MethodPost, "/v1/envelopes", mallory, api.PutEnvelopesRequest{
			Scope:    conversation.DirectMessage(alice.String(), uuid.NewString()).String(),
			DeviceID: device,
			Entries:  []api.EnvelopeEntry{{DeviceID: device, SealedKey: forged}},
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestMessages(t *testing.T) {
	srv, m := newTestServer(t)
	alice := uuid.New()
	token := tokenFor(t, alice)
	scope := "channel:general"

	resp := call(t, srv, http.MethodPost, "/v1/messages", token, api.PostMessageRequest{Scope: scope, Content: "hi"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	legacy := decode[api.MessageResponse](t, resp)
	assert.Equal(t, alice.String(), legacy.SenderID)
	require.NotNil(t, legacy.IsEncrypted)
	assert.False(t, *legacy.IsEncrypted)

	nonce := bytes.Repeat([]byte{1}, cryptobox.NonceSize)
	resp = call(t, srv, http.MethodPost, "/v1/messages", token, api.PostMessageRequest{Scope: scope, Ciphertext: []byte("opaque"), Nonce: nonce})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = call(t, srv, http.MethodGet, "/v1/messages?scope="+url.QueryEscape(scope), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]api.MessageResponse](t, resp), 2)

	resp = call(t, srv, http.MethodGet, "/v1/messages?limit=1&scope="+url.QueryEscape(scope), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]api.MessageResponse](t, resp), 1)

	resp = call(t, srv, http.MethodPut, "/v1/messages/"+legacy.ID+"/ciphertext", token, api.UpdateCiphertextRequest{Ciphertext: []byte("migrated"), Nonce: nonce})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = call(t, srv, http.MethodGet, "/v1/messages?scope="+url.QueryEscape(scope), token, nil)
	for _, msg := range decode[[]api.MessageResponse](t, resp) {
		require.NotNil(t, msg.IsEncrypted)
		assert.True(t, *msg.IsEncrypted)
		assert.Empty(t, msg.Content)
	}

	t.Run("nonce without ciphertext", func(t *testing.T) {
		resp := call(t, srv, http.MethodPost, "/v1/messages", token, api.PostMessageRequest{Scope: scope, Content: "x", Nonce: nonce})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad limit", func(t *testing.T) {
		resp := call(t, srv, http.MethodGet, "/v1/messages?limit=abc&scope="+url.QueryEscape(scope), token, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("migrate unknown message", func(t *testing.T) {
		resp := call(t, srv, http.MethodPut, "/v1/messages/"+uuid.NewString()+"/ciphertext", token, api.UpdateCiphertextRequest{Ciphertext: []byte("x"), Nonce: nonce})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodPost, "/v1/messages", "201")))
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	call(t, srv, http.MethodGet, "/health", "", nil)

	resp := call(t, srv, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `moswords_http_requests_total{method="GET",route="/health",status="200"} 1`))
}
