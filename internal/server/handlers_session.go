package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shouni/gemini-image-studio/pkg/canvas"
	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/imgutil"
	"github.com/shouni/gemini-image-studio/pkg/session"
)

const downloadFileName = "ai-edited-image.jpg"

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return nil, false
	}
	return sess, true
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionPatch struct {
	Prompt         *string  `json:"prompt"`
	NegativePrompt *string  `json:"negative_prompt"`
	Seed           *int64   `json:"seed"`
	ClearSeed      bool     `json:"clear_seed"`
	LocalEditMode  *bool    `json:"local_edit_mode"`
	BrushSize      *float64 `json:"brush_size"`
}

func (s *Server) patchSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var p sessionPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	if p.Prompt != nil {
		sess.SetPrompt(*p.Prompt)
	}
	if p.NegativePrompt != nil {
		sess.SetNegativePrompt(*p.NegativePrompt)
	}
	switch {
	case p.ClearSeed:
		_ = sess.SetSeed(nil)
	case p.Seed != nil:
		if err := sess.SetSeed(p.Seed); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	if p.BrushSize != nil {
		sess.SetBrushSize(*p.BrushSize)
	}
	if p.LocalEditMode != nil {
		if err := sess.SetLocalEditMode(*p.LocalEditMode); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// loadImage は画像本体（image/*）または取得元を指定した JSON を受け付けます。
func (s *Server) loadImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var h domain.ImageHandle
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "image/") {
		h, err = readUpload(r)
	} else {
		var in imageInput
		if decodeErr := json.NewDecoder(r.Body).Decode(&in); decodeErr != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid payload")
			return
		}
		var ref *domain.ImageHandle
		ref, err = s.resolveImage(r, &in)
		if err == nil && ref == nil {
			err = domain.Validationf("请先上传要编辑的图片。")
		}
		if ref != nil {
			h = *ref
		}
	}
	if err == nil {
		err = sess.LoadImage(h)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func readUpload(r *http.Request) (domain.ImageHandle, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, imgutil.MaxUploadSize+1))
	if err != nil {
		return domain.ImageHandle{}, domain.Validationf("无法读取图片: %v", err)
	}
	return imgutil.ValidateUpload(data)
}

// downloadImage は現在の画像を返します。format=jpeg（既定）で白背景の JPEG に変換します。
func (s *Server) downloadImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	img, ok := sess.Image()
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no image in session")
		return
	}

	data, mimeType := img.Data, img.MimeType
	if format := r.URL.Query().Get("format"); format != "original" {
		converted, err := imgutil.CompressToJPEG(img.Data, imgutil.DefaultJPEGQuality)
		if err != nil {
			s.fail(w, r, domain.Validationf("无法转换图片: %v", err))
			return
		}
		data, mimeType = converted, "image/jpeg"
		w.Header().Set("Content-Disposition", `attachment; filename="`+downloadFileName+`"`)
	}

	w.Header().Set("Content-Type", mimeType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) changeImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.ChangeImage(); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) setReference(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var ref *domain.ImageHandle
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "image/") {
		var h domain.ImageHandle
		h, err = readUpload(r)
		ref = &h
	} else {
		var in imageInput
		if decodeErr := json.NewDecoder(r.Body).Decode(&in); decodeErr != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid payload")
			return
		}
		ref, err = s.resolveImage(r, &in)
	}
	if err == nil && ref.IsZero() {
		err = domain.Validationf("请上传 PNG 或 JPG 格式的参考图。")
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	sess.SetReference(*ref)
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) clearReference(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.ClearReference()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) randomSeed(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"seed": sess.RandomizeSeed()})
}

type pointerRequest struct {
	Action string              `json:"action"` // start | move | stop
	Event  canvas.PointerEvent `json:"event"`
	Box    canvas.Box          `json:"box"`
}

func (s *Server) pointer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req pointerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	switch req.Action {
	case "start":
		sess.StartPointer(req.Event, req.Box)
	case "move":
		if err := sess.MovePointer(req.Event, req.Box); err != nil {
			s.fail(w, r, err)
			return
		}
	case "stop":
		sess.StopPointer()
	default:
		writeError(w, http.StatusBadRequest, "bad_request", "action must be start, move or stop")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"drawing": sess.Snapshot().Drawing})
}

// getMask は二値化済みのマスク PNG を返します。何も描かれていない場合は 204 です。
func (s *Server) getMask(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	mask, err := sess.Mask()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if mask == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(mask.Data)
}

func (s *Server) clearMask(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.ClearMask()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) edit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	start := time.Now()
	resp, err := sess.Edit(r.Context())
	s.observe(string(session.OpEdit), start, err)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.toaster.Success("图像编辑成功！")
	writeJSON(w, http.StatusOK, editResponse{Result: newImageResult(resp), Session: sess.Snapshot()})
}

func (s *Server) optimizeSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	start := time.Now()
	out, err := sess.Optimize(r.Context())
	s.observe(string(session.OpOptimize), start, err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"prompt": out})
}

func (s *Server) startNew(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.StartNew()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

type editResponse struct {
	Result  imageResult      `json:"result"`
	Session session.Snapshot `json:"session"`
}
