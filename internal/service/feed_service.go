package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"fuelsoyo/internal/models"
	"fuelsoyo/internal/repository"
)

// FeedService serves per-user notification feeds and the email audit log.
type FeedService struct {
	notifications *repository.NotificationRepository
	emails        *repository.EmailLogRepository
	users         *repository.UserRepository
	stations      *repository.StationRepository
	dispatcher    *Dispatcher
	logger        *zap.Logger
}

// NewFeedService builds FeedService.
func NewFeedService(
	notifications *repository.NotificationRepository,
	emails *repository.EmailLogRepository,
	users *repository.UserRepository,
	stations *repository.StationRepository,
	dispatcher *Dispatcher,
	logger *zap.Logger,
) *FeedService {
	return &FeedService{
		notifications: notifications,
		emails:        emails,
		users:         users,
		stations:      stations,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// ForUser returns the notifications visible to the user, newest first.
func (s *FeedService) ForUser(ctx context.Context, userID string, role models.Role) ([]models.AppNotification, error) {
	all, err := s.notifications.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.AppNotification, 0, len(all))
	for _, n := range all {
		if n.VisibleTo(userID, role) {
			out = append(out, n)
		}
	}
	return out, nil
}

// MarkRead flags one notification. Notifications outside the user's feed
// are reported as not found. The flag lives on the row itself, so a
// group notification read by one member reads as read for all of them.
func (s *FeedService) MarkRead(ctx context.Context, userID string, role models.Role, id string) (*models.AppNotification, error) {
	feed, err := s.ForUser(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	for _, n := range feed {
		if n.ID == id {
			return s.notifications.MarkRead(ctx, id)
		}
	}
	return nil, ErrNotificationNotFound
}

// MarkAllRead flags every unread notification in the user's feed and
// returns how many changed.
func (s *FeedService) MarkAllRead(ctx context.Context, userID string, role models.Role) (int, error) {
	feed, err := s.ForUser(ctx, userID, role)
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, n := range feed {
		if n.Read {
			continue
		}
		if _, err := s.notifications.MarkRead(ctx, n.ID); err != nil {
			return marked, fmt.Errorf("mark %s read: %w", n.ID, err)
		}
		marked++
	}
	return marked, nil
}

// EmailLogs returns the simulated email audit trail, newest first.
func (s *FeedService) EmailLogs(ctx context.Context) ([]models.EmailLog, error) {
	return s.emails.List(ctx)
}

// RemindIfStale checks the station of an operator and writes a reminder
// when its status is stale. Non-operators and unbound operators are ignored.
func (s *FeedService) RemindIfStale(ctx context.Context, userID string) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user.Role != models.RoleOperator || user.StationID == "" {
		return false, nil
	}
	station, err := s.stations.GetByID(ctx, user.StationID)
	if err != nil {
		return false, err
	}
	reminded, err := s.dispatcher.RemindStaleStation(ctx, user.ID, *station)
	if err != nil {
		return false, err
	}
	if reminded {
		s.logger.Info("stale station reminder sent", zap.String("user_id", user.ID), zap.String("station_id", station.ID))
	}
	return reminded, nil
}
