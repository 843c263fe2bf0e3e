package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"moswords/internal/api"
	"moswords/internal/broker"
	"moswords/internal/cryptobox"
	"moswords/pkg/errors"
)

func (c *Client) RegisterDevice(ctx context.Context, deviceID string, publicKey cryptobox.PublicKey) error {
	req := api.RegisterDeviceRequest{DeviceID: deviceID, PublicKey: publicKey[:]}
	return c.do(ctx, http.MethodPost, "/v1/devices", nil, req, nil)
}

func (c *Client) Lookup(ctx context.Context, userIDs []string) ([]broker.DeviceKey, error) {
	query := url.Values{"user_id": userIDs}

	var resp []api.DeviceKeyResponse
	if err := c.do(ctx, http.MethodGet, "/v1/devices", query, nil, &resp); err != nil {
		return nil, err
	}
	return toBrokerKeys(resp)
}

func (c *Client) Fetch(ctx context.Context, scope, deviceID string) ([]byte, bool, error) {
	query := url.Values{"scope": {scope}, "device_id": {deviceID}}

	var resp api.EnvelopeResponse
	err := c.do(ctx, http.MethodGet, "/v1/envelopes", query, nil, &resp)
	if err != nil {
		if errors.CodeOf(err) == errors.CodeNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return resp.SealedKey, true, nil
}

func (c *Client) Publish(ctx context.Context, scope, writerDeviceID string, envelopes []broker.Envelope) error {
	req := api.PutEnvelopesRequest{
		Scope:    scope,
		DeviceID: writerDeviceID,
		Entries:  make([]api.EnvelopeEntry, 0, len(envelopes)),
	}
	for _, e := range envelopes {
		req.Entries = append(req.Entries, api.EnvelopeEntry{DeviceID: e.DeviceID, SealedKey: e.SealedKey})
	}
	return c.do(ctx, http.MethodPost, "/v1/envelopes", nil, req, nil)
}

func (c *Client) PostMessage(ctx context.Context, req api.PostMessageRequest) (*api.MessageResponse, error) {
	var resp api.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/v1/messages", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListMessages(ctx context.Context, scope string, limit int) ([]api.MessageResponse, error) {
	query := url.Values{"scope": {scope}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp []api.MessageResponse
	if err := c.do(ctx, http.MethodGet, "/v1/messages", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) UpdateCiphertext(ctx context.Context, messageID string, payload cryptobox.Payload) error {
	req := api.UpdateCiphertextRequest{Ciphertext: payload.Ciphertext, Nonce: payload.Nonce}
	return c.do(ctx, http.MethodPut, "/v1/messages/"+url.PathEscape(messageID)+"/ciphertext", nil, req, nil)
}

func toBrokerKeys(resp []api.DeviceKeyResponse) ([]broker.DeviceKey, error) {
	keys := make([]broker.DeviceKey, 0, len(resp))
	for _, k := range resp {
		pub, err := cryptobox.ParsePublicKey(k.PublicKey)
		if err != nil {
			return nil, err
		}
		keys = append(keys, broker.DeviceKey{UserID: k.UserID, DeviceID: k.DeviceID, PublicKey: pub})
	}
	return keys, nil
}
