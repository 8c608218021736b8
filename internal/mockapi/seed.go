package mockapi

import (
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"xbarclient/internal/model"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "password123"

var seedTags = []string{
	"travel", "nature", "food", "sunset", "coffee", "art",
	"music", "fitness", "mood", "weekend",
}

// Seed populates the backend with deterministic fixtures: userCount
// accounts (all with SeedPassword) and postCount posts with hashtagged
// captions, likes and comments spread across them.
func (s *Server) Seed(seed int64, userCount, postCount int) {
	faker := gofakeit.New(seed)

	s.mu.Lock()
	defer s.mu.Unlock()

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.MinCost)
	if err != nil {
		log.Printf("[MockAPI] Seed failed to hash password: %v", err)
		return
	}

	userIDs := make([]int64, 0, userCount)
	for i := 0; i < userCount; i++ {
		username := fmt.Sprintf("%s%d", faker.Username(), i)
		user := model.User{
			ID:              s.nextUserID,
			Username:        username,
			Email:           username + "@" + faker.DomainName(),
			ProfileImageURL: "https://i.pravatar.cc/150?u=" + username,
			Bio:             faker.Sentence(6),
			FollowerCount:   faker.Number(0, 5000),
			FollowingCount:  faker.Number(0, 1500),
			CreatedAt:       time.Now().Add(-time.Duration(faker.Number(30, 365*24)) * time.Hour),
		}
		s.nextUserID++
		s.accounts[user.ID] = &account{user: user, passwordHash: hash}
		s.byUsername[user.Username] = user.ID
		s.byEmail[user.Email] = user.ID
		userIDs = append(userIDs, user.ID)
	}

	pick := func() model.UserRef {
		return s.accounts[userIDs[faker.Number(0, len(userIDs)-1)]].user.Ref()
	}

	for i := 0; i < postCount; i++ {
		raw := faker.Sentence(5)
		tags := append([]string(nil), seedTags...)
		faker.ShuffleStrings(tags)
		for _, tag := range tags[:faker.Number(1, 3)] {
			raw += " #" + tag
		}
		caption, hashtags := model.NormalizeCaption(raw)

		post := &model.Post{
			ID:        uuid.NewString(),
			Author:    pick(),
			ImageURL:  fmt.Sprintf("https://picsum.photos/seed/%d/600/600", faker.Number(1, 10000)),
			Caption:   caption,
			Hashtags:  hashtags,
			Likes:     []model.Like{},
			Comments:  []model.Comment{},
			CreatedAt: time.Now().Add(-time.Duration(i+1) * time.Hour),
		}

		for _, id := range userIDs {
			if faker.Bool() {
				post.Likes = append(post.Likes, model.Like{ID: uuid.NewString(), UserID: id})
			}
		}
		for c := faker.Number(0, 4); c > 0; c-- {
			post.Comments = append(post.Comments, model.Comment{
				ID:        uuid.NewString(),
				Author:    pick(),
				Text:      faker.Sentence(4),
				CreatedAt: post.CreatedAt.Add(time.Duration(c) * time.Minute),
			})
		}

		s.posts = append(s.posts, post)
	}

	log.Printf("[MockAPI] Seeded %d users, %d posts", userCount, postCount)
}

// SeededUsernames returns the seeded account usernames, for the CLI's
// offline mode banner.
func (s *Server) SeededUsernames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.byUsername))
	for name := range s.byUsername {
		names = append(names, name)
	}
	return names
}
