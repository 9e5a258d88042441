package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/gemini-image-studio/pkg/credential"
	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/imgutil"
	"github.com/shouni/gemini-image-studio/pkg/session"
)

var aspectRatios = map[string]bool{
	"1:1":  true,
	"3:4":  true,
	"4:3":  true,
	"9:16": true,
	"16:9": true,
}

// imageInput は JSON で受け取る画像です。Data（base64、data: ヘッダーなし）か Source のどちらかを指定します。
type imageInput struct {
	Data   []byte `json:"data,omitempty"`
	Source string `json:"source,omitempty"`
}

// resolveImage は入力を検証済みの ImageHandle に変換します。どちらも空なら nil を返します。
// Source はリモート（gs://、http(s)://）のみ受け付けます。
func (s *Server) resolveImage(r *http.Request, in *imageInput) (*domain.ImageHandle, error) {
	if in == nil {
		return nil, nil
	}
	if len(in.Data) > 0 {
		h, err := imgutil.ValidateUpload(in.Data)
		if err != nil {
			return nil, err
		}
		return &h, nil
	}
	src := strings.TrimSpace(in.Source)
	if src == "" {
		return nil, nil
	}
	if !strings.Contains(src, "://") {
		return nil, domain.Validationf("不支持的图片来源: %s", src)
	}
	h, err := s.loader.Load(r.Context(), src)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

type imageResult struct {
	Image       []byte   `json:"image"`
	MimeType    string   `json:"mime_type"`
	UsedSeed    int64    `json:"used_seed"`
	SeedHonored bool     `json:"seed_honored"`
	Description string   `json:"description,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func newImageResult(resp *domain.ImageResponse) imageResult {
	return imageResult{
		Image:       resp.Data,
		MimeType:    resp.MimeType,
		UsedSeed:    resp.UsedSeed,
		SeedHonored: resp.SeedHonored,
		Description: resp.Description,
		Suggestions: resp.Suggestions,
	}
}

type generateRequest struct {
	Prompt         string      `json:"prompt"`
	NegativePrompt string      `json:"negative_prompt"`
	Style          string      `json:"style"` // プリセット ID
	AspectRatio    string      `json:"aspect_ratio"`
	Seed           *int64      `json:"seed"`
	Reference      *imageInput `json:"reference"`
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	start := time.Now()
	resp, err := s.runGenerate(r, req)
	s.observe(string(session.OpGenerate), start, err)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.toaster.Success("图像生成成功！")
	writeJSON(w, http.StatusOK, newImageResult(resp))
}

func (s *Server) runGenerate(r *http.Request, req generateRequest) (*domain.ImageResponse, error) {
	if !s.guard.TryAcquire(session.OpGenerate) {
		return nil, domain.ErrBusy
	}
	defer s.guard.Release(session.OpGenerate)

	if err := validateCommon(req.AspectRatio, req.Seed); err != nil {
		return nil, err
	}

	genReq := domain.ImageGenerationRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		AspectRatio:    req.AspectRatio,
		Seed:           req.Seed,
	}
	if req.Style != "" {
		preset, ok := domain.FindStyle(req.Style)
		if !ok {
			return nil, domain.Validationf("未知的风格: %s", req.Style)
		}
		genReq.Style = preset.PromptFragment
	}
	ref, err := s.resolveImage(r, req.Reference)
	if err != nil {
		return nil, err
	}
	genReq.Reference = ref

	return s.gen.GenerateFromText(r.Context(), genReq)
}

type remixRequest struct {
	Content        *imageInput `json:"content"`
	Style          *imageInput `json:"style"`
	Prompt         string      `json:"prompt"`
	NegativePrompt string      `json:"negative_prompt"`
	AspectRatio    string      `json:"aspect_ratio"`
	Seed           *int64      `json:"seed"`
}

func (s *Server) remix(w http.ResponseWriter, r *http.Request) {
	var req remixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	start := time.Now()
	resp, err := s.runRemix(r, req)
	s.observe(string(session.OpRemix), start, err)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.toaster.Success("图像生成成功！")
	writeJSON(w, http.StatusOK, newImageResult(resp))
}

func (s *Server) runRemix(r *http.Request, req remixRequest) (*domain.ImageResponse, error) {
	if !s.guard.TryAcquire(session.OpRemix) {
		return nil, domain.ErrBusy
	}
	defer s.guard.Release(session.OpRemix)

	if err := validateCommon(req.AspectRatio, req.Seed); err != nil {
		return nil, err
	}

	content, err := s.resolveImage(r, req.Content)
	if err != nil {
		return nil, err
	}
	style, err := s.resolveImage(r, req.Style)
	if err != nil {
		return nil, err
	}
	if content == nil || style == nil {
		return nil, domain.Validationf("请同时提供内容图和风格图。")
	}

	return s.gen.RemixImage(r.Context(), domain.ImageRemixRequest{
		Content:        *content,
		Style:          *style,
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		AspectRatio:    req.AspectRatio,
		Seed:           req.Seed,
	})
}

// optimizeText はセッションに属さないプロンプト最適化です。
func (s *Server) optimizeText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	start := time.Now()
	out, err := func() (string, error) {
		if !s.guard.TryAcquire(session.OpOptimize) {
			return "", domain.ErrBusy
		}
		defer s.guard.Release(session.OpOptimize)
		return s.gen.OptimizePrompt(r.Context(), req.Prompt)
	}()
	s.observe(string(session.OpOptimize), start, err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"prompt": out})
}

func validateCommon(aspectRatio string, seed *int64) error {
	if aspectRatio != "" && !aspectRatios[aspectRatio] {
		return domain.Validationf("不支持的宽高比: %s", aspectRatio)
	}
	return domain.ValidateSeed(seed)
}

func (s *Server) styles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.StylePresets)
}

func (s *Server) apiKeyStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"configured": s.creds.HasKey()})
}

func (s *Server) setAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := s.creds.Set(req.Key); err != nil {
		if errors.Is(err, credential.ErrEmptyKey) {
			s.fail(w, r, domain.Validationf("%s", err.Error()))
			return
		}
		s.fail(w, r, err)
		return
	}
	s.toaster.Success("API 密钥已保存。")
	writeJSON(w, http.StatusOK, map[string]bool{"configured": true})
}

func (s *Server) clearAPIKey(w http.ResponseWriter, r *http.Request) {
	if err := s.creds.Clear(); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"configured": s.creds.HasKey()})
}
