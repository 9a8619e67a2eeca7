package service

import (
	"context"
	"log"
	"strings"

	"go-storefront/apps/api/model"
	"go-storefront/pkg/jwt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AccountService handles registration, login and profile management.
type AccountService struct {
	db       *gorm.DB
	tokens   *jwt.Manager
	notifier Enqueuer
}

func NewAccountService(db *gorm.DB, tokens *jwt.Manager, notifier Enqueuer) *AccountService {
	return &AccountService{db: db, tokens: tokens, notifier: notifier}
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	Password2 string
	Role      string
	FirstName string
	LastName  string
	StoreName string
	Phone     string
}

// Register creates a user. The requested role is honored: SELLER needs a
// store name and is never silently downgraded to CONSUMER; ADMIN cannot be
// self-assigned.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, Validation("username", "username is required")
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, Validation("email", "email is required")
	}
	if len(in.Password) < 8 {
		return nil, Validation("password", "password must be at least 8 characters")
	}
	if in.Password != in.Password2 {
		return nil, Validation("password", "password fields didn't match")
	}

	role := in.Role
	if role == "" {
		role = model.RoleConsumer
	}
	switch role {
	case model.RoleConsumer:
	case model.RoleSeller:
		if strings.TrimSpace(in.StoreName) == "" {
			return nil, Validation("store_name", "store name is required for seller registration")
		}
	case model.RoleAdmin:
		return nil, Permission("admin accounts cannot be self-registered")
	default:
		return nil, Validation("role", "unknown role %q", in.Role)
	}

	var cnt int64
	s.db.WithContext(ctx).Model(&model.User{}).Where("username = ?", in.Username).Count(&cnt)
	if cnt > 0 {
		return nil, Conflict("username", "username %q is already taken", in.Username)
	}
	s.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", in.Email).Count(&cnt)
	if cnt > 0 {
		return nil, Conflict("email", "email %q is already registered", in.Email)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  string(hashed),
		Role:      role,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		StoreName: in.StoreName,
		Phone:     in.Phone,
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicateErr(err) {
			return nil, Conflict("username", "username or email already registered")
		}
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.Enqueue(ctx, MailJob{Type: model.EmailTypeWelcome, UserID: u.ID}); err != nil {
			log.Printf("welcome mail enqueue failed for user %d: %v", u.ID, err)
		}
	}

	return u, nil
}

// Login checks credentials and issues a signed token carrying the role.
func (s *AccountService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, "", NotFound("user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, "", Permission("invalid password")
	}

	token, err := s.tokens.GenerateToken(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, "", err
	}
	return &u, token, nil
}

// GetUser loads one user by id.
func (s *AccountService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, NotFound("user")
	}
	return &u, nil
}

type ProfileUpdate struct {
	Email          *string
	FirstName      *string
	LastName       *string
	StoreName      *string
	Phone          *string
	Address        *string
	ProfilePicture *string
}

// UpdateProfile changes profile fields. Username and role are immutable
// through self service; a seller cannot blank their store name.
func (s *AccountService) UpdateProfile(ctx context.Context, user *model.User, in ProfileUpdate) (*model.User, error) {
	updates := map[string]interface{}{}
	if in.Email != nil {
		if strings.TrimSpace(*in.Email) == "" {
			return nil, Validation("email", "email is required")
		}
		var cnt int64
		s.db.WithContext(ctx).Model(&model.User{}).Where("email = ? AND id <> ?", *in.Email, user.ID).Count(&cnt)
		if cnt > 0 {
			return nil, Conflict("email", "email %q is already registered", *in.Email)
		}
		updates["email"] = *in.Email
	}
	if in.FirstName != nil {
		updates["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		updates["last_name"] = *in.LastName
	}
	if in.StoreName != nil {
		if user.IsSeller() && strings.TrimSpace(*in.StoreName) == "" {
			return nil, Validation("store_name", "sellers must keep a store name")
		}
		updates["store_name"] = *in.StoreName
	}
	if in.Phone != nil {
		updates["phone"] = *in.Phone
	}
	if in.Address != nil {
		updates["address"] = *in.Address
	}
	if in.ProfilePicture != nil {
		updates["profile_picture"] = *in.ProfilePicture
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return user, nil
}
