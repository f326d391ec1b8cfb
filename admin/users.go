package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pressroom/models"
)

func (a *AdminModule) listUsers(c *gin.Context) {
	var users []models.User
	a.list(c, &models.User{}, &users, userList)
}

func (a *AdminModule) createUser(c *gin.Context) {
	var user models.User
	formString(c, "username", &user.Username)
	formString(c, "first_name", &user.FirstName)
	formString(c, "last_name", &user.LastName)
	formString(c, "email", &user.Email)
	if err := formBool(c, "is_staff", &user.IsStaff); err != nil {
		badRequest(c, "is_staff", err.Error())
		return
	}
	if user.Username == "" {
		badRequest(c, "username", "username is required")
		return
	}
	password := c.PostForm("password")
	if len(password) < 8 {
		badRequest(c, "password", "password must have at least 8 characters")
		return
	}

	var n int64
	a.db.Model(&models.User{}).Where("username = ?", user.Username).Count(&n)
	if n > 0 {
		badRequest(c, "username", "username is already in use")
		return
	}

	hash, err := hashPassword(password)
	if err != nil {
		a.fail(c, err, 0)
		return
	}
	user.PasswordHash = hash
	if err := a.db.Create(&user).Error; err != nil {
		a.fail(c, err, 0)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// deleteUser keeps the user's posts; their audit columns are cleared.
func (a *AdminModule) deleteUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if id == currentUserID(c) {
		badRequest(c, "id", "cannot delete the signed in user")
		return
	}
	if err := a.content.DeleteUser(c.Request.Context(), id); err != nil {
		a.fail(c, err, id)
		return
	}
	c.Status(http.StatusNoContent)
}
