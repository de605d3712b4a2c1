package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/academy_server/internal/model/dto"
	"github.com/qs3c/academy_server/internal/pkg/response"
	"github.com/qs3c/academy_server/internal/service"
)

type AthleteHandler struct {
	athleteService *service.AthleteService
	maxPhotoSize   int64
}

func NewAthleteHandler(athleteService *service.AthleteService, maxPhotoSize int64) *AthleteHandler {
	if maxPhotoSize <= 0 {
		maxPhotoSize = 5 * 1024 * 1024
	}
	return &AthleteHandler{
		athleteService: athleteService,
		maxPhotoSize:   maxPhotoSize,
	}
}

// List 当前家长的运动员
// GET /api/v1/athletes
func (h *AthleteHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	items, err := h.athleteService.ListMine(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, items)
}

// Create 添加运动员
// POST /api/v1/athletes
func (h *AthleteHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateAthleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	info, err := h.athleteService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "创建成功", info)
}

// Get 运动员详情
// GET /api/v1/athletes/:id
func (h *AthleteHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	athleteID, ok := paramID(c, "id")
	if !ok {
		response.ParamError(c, "无效的运动员ID")
		return
	}

	info, err := h.athleteService.Get(c.Request.Context(), actor, athleteID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, info)
}

// UploadPhoto 上传运动员头像
// POST /api/v1/athletes/:id/photo
func (h *AthleteHandler) UploadPhoto(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	athleteID, ok := paramID(c, "id")
	if !ok {
		response.ParamError(c, "无效的运动员ID")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.ParamError(c, "请选择文件")
		return
	}
	if file.Size > h.maxPhotoSize {
		response.ParamError(c, service.ErrPhotoTooLarge.Error())
		return
	}

	f, err := file.Open()
	if err != nil {
		response.ServerError(c, "文件读取失败")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxPhotoSize+1))
	if err != nil {
		response.ServerError(c, "文件读取失败")
		return
	}

	resp, err := h.athleteService.UploadPhoto(c.Request.Context(), actor, athleteID, file.Filename, data)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "上传成功", resp)
}
