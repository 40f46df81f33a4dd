// Package seed provides database seeding utilities for development.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"inkwell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumGroups   int
	NumPosts    int
	ShouldClean bool
}

var groupTopics = []string{
	"Travel", "Cooking", "Photography", "Books", "Music",
	"Cinema", "Technology", "Science", "History", "Gardening",
	"Running", "Cycling", "Poetry", "Painting", "Chess",
}

// Seed populates the database with demo data.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding %d users, %d groups, %d posts...", opts.NumUsers, opts.NumGroups, opts.NumPosts)
	gofakeit.Seed(time.Now().UnixNano())

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("warning: could not clear existing data, continuing anyway")
		}
	}

	users, err := createUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}

	groups, err := createGroups(db, opts.NumGroups)
	if err != nil {
		return fmt.Errorf("failed to create groups: %w", err)
	}

	posts, err := createPosts(db, users, groups, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}

	if err := createComments(db, users, posts); err != nil {
		return fmt.Errorf("failed to create comments: %w", err)
	}
	if err := createFollows(db, users); err != nil {
		return fmt.Errorf("failed to create follows: %w", err)
	}

	log.Println("Seeding completed")
	return nil
}

func clearData(db *gorm.DB) error {
	sql := `TRUNCATE TABLE follows, comments, posts, "groups", users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func createUsers(db *gorm.DB, count int) ([]models.User, error) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	users := make([]models.User, 0, count+1)
	admin := models.User{
		Username: "admin",
		Email:    "admin@example.com",
		Password: string(hashed),
		IsAdmin:  true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return nil, err
	}
	users = append(users, admin)

	for i := 0; i < count; i++ {
		username := strings.ToLower(gofakeit.Username())
		user := models.User{
			Username: fmt.Sprintf("%s%d", username, i),
			Email:    fmt.Sprintf("%s%d@%s", username, i, gofakeit.DomainName()),
			Password: string(hashed),
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func createGroups(db *gorm.DB, count int) ([]models.Group, error) {
	if count > len(groupTopics) {
		count = len(groupTopics)
	}
	groups := make([]models.Group, 0, count)
	for i := 0; i < count; i++ {
		topic := groupTopics[i]
		group := models.Group{
			Title:       topic,
			Slug:        strings.ToLower(topic),
			Description: gofakeit.Sentence(8),
		}
		if err := db.Create(&group).Error; err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func createPosts(db *gorm.DB, users []models.User, groups []models.Group, count int) ([]models.Post, error) {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[r.Intn(len(users))]
		post := models.Post{
			Text:     gofakeit.Paragraph(1, 3, 8, "\n"),
			AuthorID: author.ID,
		}
		// Roughly two thirds of posts belong to a group.
		if len(groups) > 0 && r.Intn(3) != 0 {
			groupID := groups[r.Intn(len(groups))].ID
			post.GroupID = &groupID
		}
		if err := db.Create(&post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func createComments(db *gorm.DB, users []models.User, posts []models.Post) error {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, post := range posts {
		for i := 0; i < r.Intn(4); i++ {
			comment := models.Comment{
				PostID:   post.ID,
				AuthorID: users[r.Intn(len(users))].ID,
				Text:     gofakeit.Sentence(10),
			}
			if err := db.Create(&comment).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func createFollows(db *gorm.DB, users []models.User) error {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, follower := range users {
		for i := 0; i < r.Intn(5); i++ {
			author := users[r.Intn(len(users))]
			if author.ID == follower.ID {
				continue
			}
			follow := models.Follow{FollowerID: follower.ID, AuthorID: author.ID}
			// Duplicate pairs from the random picks are skipped.
			if err := db.Where(&follow).FirstOrCreate(&follow).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
