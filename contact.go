package portfoliolive

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ContactRequest is a contact form submission. Nothing is stored; the
// submission is logged for the site owner.
type ContactRequest struct {
	Name    string `json:"name" binding:"required,min=2"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"required,min=5"`
	Message string `json:"message" binding:"required,min=10"`
}

var contactFieldMessages = map[string]string{
	"Name":    "Name must be at least 2 characters.",
	"Email":   "Please enter a valid email address.",
	"Subject": "Subject must be at least 5 characters.",
	"Message": "Message must be at least 10 characters.",
}

func (s *Server) submitContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid form data",
			"errors":  contactErrors(err),
		})
		return
	}
	log.Printf("Contact form submission from %s <%s>: %q", req.Name, req.Email, req.Subject)
	c.JSON(http.StatusOK, gin.H{"message": "Message sent successfully!"})
}

func contactErrors(err error) []gin.H {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []gin.H{{"message": err.Error()}}
	}
	res := []gin.H{}
	for _, fe := range fieldErrors {
		res = append(res, gin.H{
			"field":   strings.ToLower(fe.Field()),
			"message": contactFieldMessages[fe.Field()],
		})
	}
	return res
}
