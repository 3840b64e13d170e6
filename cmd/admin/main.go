// 命令 admin 创建或重置本地账号，便于首次部署后直接登录。
package main

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"resumekit/internal/auth"
	"resumekit/internal/config"
	"resumekit/internal/database"
)

func main() {
	var (
		username = flag.String("username", "", "账号用户名（必填）")
		password = flag.String("password", "", "账号口令（留空则随机生成并打印）")
		email    = flag.String("email", "", "账号邮箱（可选）")
	)
	flag.Parse()

	u := strings.TrimSpace(*username)
	if u == "" {
		log.Fatal("missing required flag: --username")
	}

	cfg := config.MustLoad()

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	authService, err := auth.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	pass := strings.TrimSpace(*password)
	generated := false
	if pass == "" {
		pass, err = randomPassword()
		if err != nil {
			log.Fatalf("generate password: %v", err)
		}
		generated = true
	}

	hashed, err := authService.HashPassword(pass)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	var user database.User
	switch err := db.Where("username = ?", u).First(&user).Error; {
	case err == nil:
		updates := map[string]any{"password_hash": hashed}
		if *email != "" {
			updates["email"] = *email
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			log.Fatalf("reset user: %v", err)
		}
		fmt.Printf("password reset for user %q (id=%d)\n", u, user.ID)
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = database.User{Username: u, Email: *email, PasswordHash: hashed}
		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("create user: %v", err)
		}
		fmt.Printf("created user %q (id=%d)\n", u, user.ID)
	default:
		log.Fatalf("query user: %v", err)
	}

	if generated {
		fmt.Printf("generated password: %s\n", pass)
	}
}

func randomPassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
