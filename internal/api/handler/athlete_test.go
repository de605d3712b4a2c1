package handler

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/academy_server/internal/model"
	"github.com/qs3c/academy_server/internal/model/dto"
	"github.com/qs3c/academy_server/internal/pkg/response"
)

func athleteRouter(tc *testContext, user *model.User) *gin.Engine {
	router := gin.New()
	router.Use(mockAuth(user))
	router.GET("/athletes", tc.Athletes.List)
	router.POST("/athletes", tc.Athletes.Create)
	router.GET("/athletes/:id", tc.Athletes.Get)
	router.POST("/athletes/:id/photo", tc.Athletes.UploadPhoto)
	return router
}

func uploadPhoto(router *gin.Engine, athleteID int64, filename string, data []byte) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", filename)
	part.Write(data)
	writer.Close()

	req := httptest.NewRequest("POST", fmt.Sprintf("/athletes/%d/photo", athleteID), body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAthleteHandler_CreateAndList(t *testing.T) {
	tc := setupHandlers(t, nil)
	guardian, existing := tc.guardianWithAthlete(t, "elite")
	router := athleteRouter(tc, guardian)

	w := performRequest(router, "POST", "/athletes", dto.CreateAthleteRequest{
		FirstName:   "Leo",
		LastName:    "Park",
		DateOfBirth: "2015-09-01",
		Interests:   []string{"speed"},
	})
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	var created dto.AthleteInfo
	decodeData(t, resp, &created)
	assert.Equal(t, "Leo Park", created.FullName)
	assert.NotEmpty(t, created.QRCode)
	assert.Equal(t, "none", created.SubscriptionStatus)

	w = performRequest(router, "GET", "/athletes", nil)
	resp = parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	var items []dto.AthleteInfo
	decodeData(t, resp, &items)
	require.Len(t, items, 2)

	byID := map[int64]dto.AthleteInfo{}
	for _, item := range items {
		byID[item.ID] = item
	}
	assert.Equal(t, "active", byID[existing.ID].SubscriptionStatus)
	assert.Equal(t, 12, byID[existing.ID].Usage.Limit)
}

func TestAthleteHandler_Create_Invalid(t *testing.T) {
	tc := setupHandlers(t, nil)
	guardian, _ := tc.guardianWithAthlete(t, "")
	router := athleteRouter(tc, guardian)

	w := performRequest(router, "POST", "/athletes", dto.CreateAthleteRequest{LastName: "NoFirstName"})
	assert.Equal(t, response.CodeParamError, parseResponse(t, w).Code)

	w = performRequest(router, "POST", "/athletes", dto.CreateAthleteRequest{FirstName: "Ava", DateOfBirth: "09/01/2015"})
	assert.Equal(t, response.CodeParamError, parseResponse(t, w).Code)
}

func TestAthleteHandler_Get_Permissions(t *testing.T) {
	tc := setupHandlers(t, nil)
	_, athlete := tc.guardianWithAthlete(t, "")
	stranger, _ := tc.guardianWithAthlete(t, "")

	w := performRequest(athleteRouter(tc, stranger), "GET", fmt.Sprintf("/athletes/%d", athlete.ID), nil)
	assert.Equal(t, response.CodePermissionDenied, parseResponse(t, w).Code)

	w = performRequest(athleteRouter(tc, stranger), "GET", "/athletes/99999", nil)
	assert.Equal(t, response.CodeResourceNotFound, parseResponse(t, w).Code)
}

func TestAthleteHandler_UploadPhoto(t *testing.T) {
	store := &photoStore{}
	tc := setupHandlers(t, store)
	guardian, athlete := tc.guardianWithAthlete(t, "")
	router := athleteRouter(tc, guardian)

	w := uploadPhoto(router, athlete.ID, "me.PNG", []byte("fake-png"))
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	var photo dto.PhotoResponse
	decodeData(t, resp, &photo)
	assert.Equal(t, fmt.Sprintf("https://cdn.example.com/athletes/%d/1.png", athlete.ID), photo.ProfileImageURL)

	var stored model.Athlete
	require.NoError(t, tc.DB.First(&stored, athlete.ID).Error)
	assert.Equal(t, photo.ProfileImageURL, stored.ProfileImageURL)
}

func TestAthleteHandler_UploadPhoto_Rejects(t *testing.T) {
	store := &photoStore{}
	tc := setupHandlers(t, store)
	guardian, athlete := tc.guardianWithAthlete(t, "")
	stranger, _ := tc.guardianWithAthlete(t, "")

	w := uploadPhoto(athleteRouter(tc, guardian), athlete.ID, "notes.txt", []byte("text"))
	assert.Equal(t, response.CodeParamError, parseResponse(t, w).Code)

	w = uploadPhoto(athleteRouter(tc, stranger), athlete.ID, "me.jpg", []byte("jpg"))
	assert.Equal(t, response.CodePermissionDenied, parseResponse(t, w).Code)

	// 缺少文件字段
	w = performRequest(athleteRouter(tc, guardian), "POST", fmt.Sprintf("/athletes/%d/photo", athlete.ID), nil)
	assert.Equal(t, response.CodeParamError, parseResponse(t, w).Code)

	assert.Zero(t, store.uploads)
}

func TestAthleteHandler_UploadPhoto_StorageOff(t *testing.T) {
	tc := setupHandlers(t, nil)
	guardian, athlete := tc.guardianWithAthlete(t, "")

	w := uploadPhoto(athleteRouter(tc, guardian), athlete.ID, "me.jpg", []byte("jpg"))
	assert.Equal(t, response.CodeServerError, parseResponse(t, w).Code)
}
