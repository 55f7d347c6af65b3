package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"
	"go.uber.org/multierr"
)

const dataChannelLabel = "game"

// SessionDescription is the JSON shape of an SDP offer or answer on the signaling endpoint.
type SessionDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// OfferRequest is POSTed to the signaling endpoint.
type OfferRequest struct {
	Username string             `json:"username"`
	Offer    SessionDescription `json:"offer"`
}

// OfferResponse is the signaling endpoint's reply.
type OfferResponse struct {
	PlayerID string             `json:"player_id"`
	Answer   SessionDescription `json:"answer"`
}

// DataChannel dials the game server over a WebRTC data channel negotiated
// through an HTTP signaling endpoint.
type DataChannel struct {
	SignalURL  string
	Username   string
	Header     http.Header
	ICEServers []string
	HTTPClient *http.Client
	// API overrides the default pion API, e.g. to tune its SettingEngine.
	API *webrtc.API
}

func (d *DataChannel) username() string {
	if d.Username != "" {
		return d.Username
	}
	return "Player_" + uuid.New().String()[:8]
}

func (d *DataChannel) newPeerConnection() (*webrtc.PeerConnection, error) {
	config := webrtc.Configuration{ICETransportPolicy: webrtc.ICETransportPolicyAll}
	if len(d.ICEServers) > 0 {
		config.ICEServers = []webrtc.ICEServer{{URLs: d.ICEServers}}
	}
	if d.API != nil {
		return d.API.NewPeerConnection(config)
	}
	return webrtc.NewPeerConnection(config)
}

func (d *DataChannel) Dial(ctx context.Context) (Conn, error) {
	pc, err := d.newPeerConnection()
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	dc, err := pc.CreateDataChannel(dataChannelLabel, nil)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("create data channel: %w", err)
	}
	conn := newDataChannelConn(pc, dc)

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create offer: %w", err)
	}
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set local description: %w", err)
	}
	select {
	case <-gathered:
	case <-ctx.Done():
		conn.Close()
		return nil, ctx.Err()
	}

	local := pc.LocalDescription()
	answer, err := d.signal(ctx, SessionDescription{Type: local.Type.String(), SDP: local.SDP})
	if err != nil {
		conn.Close()
		return nil, err
	}

	remote := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: answer.SDP}
	if err := pc.SetRemoteDescription(remote); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set remote description: %w", err)
	}

	select {
	case <-conn.opened:
		return conn, nil
	case <-conn.done:
		err := conn.err
		conn.Close()
		return nil, err
	case <-ctx.Done():
		conn.Close()
		return nil, ctx.Err()
	}
}

func (d *DataChannel) signal(ctx context.Context, offer SessionDescription) (SessionDescription, error) {
	body, err := json.Marshal(OfferRequest{Username: d.username(), Offer: offer})
	if err != nil {
		return SessionDescription{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.SignalURL, bytes.NewReader(body))
	if err != nil {
		return SessionDescription{}, fmt.Errorf("signaling request: %w", err)
	}
	for k, v := range d.Header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")

	client := d.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return SessionDescription{}, fmt.Errorf("signaling: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return SessionDescription{}, fmt.Errorf("signaling: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out OfferResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return SessionDescription{}, fmt.Errorf("signaling: decode answer: %w", err)
	}
	if out.Answer.SDP == "" {
		return SessionDescription{}, errors.New("signaling: empty answer")
	}
	return out.Answer, nil
}

type dcMessage struct {
	data []byte
	text bool
}

type dataChannelConn struct {
	pc     *webrtc.PeerConnection
	dc     *webrtc.DataChannel
	inbox  chan dcMessage
	opened chan struct{}
	done   chan struct{}

	openOnce  sync.Once
	doneOnce  sync.Once
	closeOnce sync.Once
	err       error
	closeErr  error
}

func newDataChannelConn(pc *webrtc.PeerConnection, dc *webrtc.DataChannel) *dataChannelConn {
	c := &dataChannelConn{
		pc:     pc,
		dc:     dc,
		inbox:  make(chan dcMessage, 256),
		opened: make(chan struct{}),
		done:   make(chan struct{}),
	}

	dc.OnOpen(func() {
		c.openOnce.Do(func() { close(c.opened) })
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		select {
		case c.inbox <- dcMessage{data: msg.Data, text: msg.IsString}:
		case <-c.done:
		}
	})
	dc.OnClose(func() {
		c.finish(&CloseError{Code: CloseNormal, Reason: "data channel closed"})
	})
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		if state == webrtc.PeerConnectionStateFailed {
			c.finish(&CloseError{Code: CloseAbnormal, Reason: "peer connection " + state.String()})
		}
	})
	return c
}

func (c *dataChannelConn) finish(err error) {
	c.doneOnce.Do(func() {
		c.err = err
		close(c.done)
	})
}

func (c *dataChannelConn) ReadMessage() ([]byte, error) {
	// Drain what already arrived before reporting the close.
	select {
	case m := <-c.inbox:
		return c.unwrap(m)
	default:
	}
	select {
	case m := <-c.inbox:
		return c.unwrap(m)
	case <-c.done:
		return nil, c.err
	}
}

func (c *dataChannelConn) unwrap(m dcMessage) ([]byte, error) {
	if !m.text {
		return nil, ErrNonText
	}
	return m.data, nil
}

func (c *dataChannelConn) WriteMessage(data []byte) error {
	select {
	case <-c.done:
		return c.err
	default:
	}
	return c.dc.SendText(string(data))
}

// Ping is a no-op: SCTP keeps the association alive.
func (c *dataChannelConn) Ping() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

func (c *dataChannelConn) Close() error {
	c.finish(ErrClosed)
	c.closeOnce.Do(func() {
		c.closeErr = multierr.Combine(c.dc.Close(), c.pc.Close())
	})
	return c.closeErr
}
