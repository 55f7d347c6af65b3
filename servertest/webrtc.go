package servertest

import (
	"encoding/json"
	"net/http"

	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"

	"snake-client/transport"
)

func (s *Server) newPeerConnection() (*webrtc.PeerConnection, error) {
	config := webrtc.Configuration{ICETransportPolicy: webrtc.ICETransportPolicyAll}
	if s.opts.API != nil {
		return s.opts.API.NewPeerConnection(config)
	}
	return webrtc.NewPeerConnection(config)
}

// handleOffer answers a client's offer and attaches the data channel the
// client opens to a new peer.
func (s *Server) handleOffer(w http.ResponseWriter, r *http.Request) {
	var req transport.OfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Offer.SDP == "" {
		http.Error(w, "Offer is required", http.StatusBadRequest)
		return
	}
	if req.Username != "" {
		q := r.URL.Query()
		q.Set("username", req.Username)
		r.URL.RawQuery = q.Encode()
	}

	pc, err := s.newPeerConnection()
	if err != nil {
		http.Error(w, "Failed to create peer connection: "+err.Error(), http.StatusInternalServerError)
		return
	}

	p := s.addPeer(r)
	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		s.log.Debug("ice state", zap.String("peer", p.id), zap.String("state", state.String()))
		if state == webrtc.ICEConnectionStateDisconnected || state == webrtc.ICEConnectionStateFailed {
			go s.dropPeer(p, pc)
		}
	})
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		dc.OnOpen(func() {
			go s.pumpDataChannel(p, pc, dc)
		})
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			if msg.IsString {
				s.deliver(p, msg.Data)
			}
		})
		dc.OnClose(func() {
			go s.dropPeer(p, pc)
		})
	})

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: req.Offer.SDP}
	if err := pc.SetRemoteDescription(offer); err != nil {
		s.dropPeer(p, pc)
		http.Error(w, "Failed to set remote description", http.StatusInternalServerError)
		return
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		s.dropPeer(p, pc)
		http.Error(w, "Failed to create answer", http.StatusInternalServerError)
		return
	}
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		s.dropPeer(p, pc)
		http.Error(w, "Failed to set local description", http.StatusInternalServerError)
		return
	}
	select {
	case <-gathered:
	case <-r.Context().Done():
		s.dropPeer(p, pc)
		return
	}

	local := pc.LocalDescription()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transport.OfferResponse{
		PlayerID: p.id,
		Answer:   transport.SessionDescription{Type: local.Type.String(), SDP: local.SDP},
	})
}

func (s *Server) pumpDataChannel(p *peer, pc *webrtc.PeerConnection, dc *webrtc.DataChannel) {
	for {
		select {
		case f := <-p.frames:
			var err error
			switch {
			case f.close:
				s.dropPeer(p, pc)
				return
			case f.binary:
				err = dc.Send(f.data)
			default:
				err = dc.SendText(string(f.data))
			}
			if err != nil {
				s.log.Warn("data channel send", zap.String("peer", p.id), zap.Error(err))
				s.dropPeer(p, pc)
				return
			}
		case <-p.done:
			pc.Close()
			return
		}
	}
}

func (s *Server) dropPeer(p *peer, pc *webrtc.PeerConnection) {
	s.removePeer(p.id)
	p.stop()
	pc.Close()
}
