package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(code string) (*httptest.ResponseRecorder, string) {
	var extracted string
	router := gin.New()
	router.GET("/rooms/:code", ExtractRoomCode("code", "roomCode"), func(c *gin.Context) {
		extracted = c.MustGet("roomCode").(string)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rooms/"+code, nil)
	router.ServeHTTP(w, req)
	return w, extracted
}

func TestExtractRoomCode_Valid(t *testing.T) {
	w, extracted := performRequest("ABC234")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ABC234", extracted)
}

func TestExtractRoomCode_NormalizesLowercase(t *testing.T) {
	// Клиенты вводят код руками: регистр не должен иметь значения
	w, extracted := performRequest("abc234")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ABC234", extracted)
}

func TestExtractRoomCode_RejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		code string
	}{
		{"слишком короткий", "ABC"},
		{"слишком длинный", "ABC2345"},
		{"недопустимые символы", "ABC-34"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := performRequest(tc.code)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
