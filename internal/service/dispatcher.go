package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fuelsoyo/internal/metrics"
	"fuelsoyo/internal/models"
	"fuelsoyo/internal/repository"
)

// Integration event routing keys.
const (
	EventNotificationCreated = "notification.created"
	EventEmailLogged         = "email.logged"
	EventStationStatus       = "station.status_changed"
	EventRequestSubmitted    = "station_request.submitted"
	EventRequestApproved     = "station_request.approved"
	EventRequestRejected     = "station_request.rejected"
)

type fuelKind struct {
	label string
	value func(models.FuelStatus) bool
}

var fuelKinds = []fuelKind{
	{label: "Gasolina", value: func(s models.FuelStatus) bool { return s.Gasoline }},
	{label: "Gasóleo", value: func(s models.FuelStatus) bool { return s.Diesel }},
}

type fuelChange struct {
	kind      fuelKind
	available bool
}

// Dispatcher turns workflow mutations into email-log rows and in-app
// notifications.
type Dispatcher struct {
	users         *repository.UserRepository
	notifications *repository.NotificationRepository
	emails        *repository.EmailLogRepository
	broadcaster   Broadcaster
	events        EventPublisher
	logger        *zap.Logger
	opts          options
}

// NewDispatcher builds a Dispatcher. broadcaster and events may be nil.
func NewDispatcher(
	users *repository.UserRepository,
	notifications *repository.NotificationRepository,
	emails *repository.EmailLogRepository,
	broadcaster Broadcaster,
	events EventPublisher,
	logger *zap.Logger,
	opts ...Option,
) *Dispatcher {
	if broadcaster == nil {
		broadcaster = nopBroadcaster{}
	}
	if events == nil {
		events = nopPublisher{}
	}
	return &Dispatcher{
		users:         users,
		notifications: notifications,
		emails:        emails,
		broadcaster:   broadcaster,
		events:        events,
		logger:        logger,
		opts:          buildOptions(opts),
	}
}

// StationStatusChanged notifies drivers about the fuel kinds whose
// availability differs between before and station.Status. Every eligible
// driver gets one email per changed kind; one all_users notification
// summarises all changes. It returns the number of emails written.
func (d *Dispatcher) StationStatusChanged(ctx context.Context, station models.Station, before models.FuelStatus) (int, error) {
	var changes []fuelChange
	for _, kind := range fuelKinds {
		if kind.value(before) != kind.value(station.Status) {
			changes = append(changes, fuelChange{kind: kind, available: kind.value(station.Status)})
		}
	}
	if len(changes) == 0 {
		return 0, nil
	}

	drivers, err := d.emailableDrivers(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	summary := make([]string, 0, len(changes))
	anyAvailable := false
	for _, change := range changes {
		subject, body, reason := statusEmail(change, station)
		state := "ESGOTADO 🔴"
		if change.available {
			state = "DISPONÍVEL 🟢"
			anyAvailable = true
		}
		summary = append(summary, change.kind.label+": "+state)

		for _, driver := range drivers {
			if _, err := d.sendEmail(ctx, reason, driver.Email, subject, fmt.Sprintf("Olá %s,\n\n%s", driver.Name, body)); err != nil {
				return sent, err
			}
			sent++
		}
	}

	severity := models.SeverityError
	if anyAvailable {
		severity = models.SeveritySuccess
	}
	if _, err := d.Notify(ctx, models.TargetAllUsers, "Atualização: "+station.Name, strings.Join(summary, ". "), severity, "/stations/"+station.ID); err != nil {
		return sent, err
	}

	d.logger.Info("station status change dispatched",
		zap.String("station_id", station.ID),
		zap.Int("changed_kinds", len(changes)),
		zap.Int("notified", sent),
	)
	return sent, nil
}

func statusEmail(change fuelChange, station models.Station) (subject, body, reason string) {
	label := change.kind.label
	if change.available {
		subject = fmt.Sprintf("[FuelSoyo] Corre! %s disponível em %s", label, station.Name)
		body = fmt.Sprintf("Boas notícias! O posto %s acabou de informar que há %s disponível.\n\nLocalização: %s\n\nCorra antes que acabe!", station.Name, label, station.Address)
		return subject, body, "fuel_available"
	}
	subject = fmt.Sprintf("[FuelSoyo] Alerta: %s acabou em %s", label, station.Name)
	body = fmt.Sprintf("Informamos que o estoque de %s no posto %s acabou de esgotar.\n\nEvite a viagem perdida. Avisaremos quando for reabastecido.", label, station.Name)
	return subject, body, "fuel_depleted"
}

// StationAdded announces a newly listed station: one all_users success
// notification and one email per eligible driver. It returns the email count.
func (d *Dispatcher) StationAdded(ctx context.Context, station models.Station) (int, error) {
	message := fmt.Sprintf("O posto %s foi adicionado ao sistema. Confira a localização.", station.Name)
	if _, err := d.Notify(ctx, models.TargetAllUsers, "Novo Posto Cadastrado!", message, models.SeveritySuccess, "/stations/"+station.ID); err != nil {
		return 0, err
	}

	drivers, err := d.emailableDrivers(ctx)
	if err != nil {
		return 0, err
	}
	subject := "Novo Posto em Soyo: " + station.Name
	sent := 0
	for _, driver := range drivers {
		body := fmt.Sprintf("Olá %s, um novo posto foi cadastrado no FuelSoyo: %s localizado em %s.", driver.Name, station.Name, station.Address)
		if _, err := d.sendEmail(ctx, "station_added", driver.Email, subject, body); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// RemindStaleStation warns an operator whose station status is older than
// the stale threshold, at most once per threshold window. It reports whether
// a reminder was written.
func (d *Dispatcher) RemindStaleStation(ctx context.Context, operatorID string, station models.Station) (bool, error) {
	now := d.opts.clock()
	if now.Sub(station.Status.LastUpdated) <= d.opts.staleAfter {
		return false, nil
	}

	existing, err := d.notifications.List(ctx)
	if err != nil {
		return false, err
	}
	windowStart := now.Add(-d.opts.staleAfter)
	for _, n := range existing {
		if n.Target == operatorID && n.Severity == models.SeverityWarning && n.Timestamp.After(windowStart) {
			return false, nil
		}
	}

	hours := int(d.opts.staleAfter.Hours())
	message := fmt.Sprintf("O status do posto %s não é atualizado há mais de %dh. Por favor, confirme a disponibilidade.", station.Name, hours)
	if _, err := d.Notify(ctx, operatorID, "Atualização Necessária", message, models.SeverityWarning, "/operator"); err != nil {
		return false, err
	}
	return true, nil
}

// Notify stores an in-app notification, pushes it to live subscribers and
// publishes an integration event. Push and publish failures are logged only;
// the stored row stays readable through the feed.
func (d *Dispatcher) Notify(ctx context.Context, target, title, message string, severity models.Severity, link string) (*models.AppNotification, error) {
	n := &models.AppNotification{
		ID:        d.opts.newID(),
		Target:    target,
		Title:     title,
		Message:   message,
		Severity:  severity,
		Timestamp: d.opts.clock(),
		Link:      link,
	}
	if err := d.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}
	metrics.RecordNotification(string(severity))

	if err := d.broadcaster.Broadcast(ctx, *n); err != nil {
		d.logger.Warn("failed to push notification", zap.String("notification_id", n.ID), zap.Error(err))
	}
	d.emit(ctx, EventNotificationCreated, n)
	return n, nil
}

// SendEmail records a simulated email send.
func (d *Dispatcher) SendEmail(ctx context.Context, to, subject, body string) (*models.EmailLog, error) {
	return d.sendEmail(ctx, "direct", to, subject, body)
}

func (d *Dispatcher) sendEmail(ctx context.Context, reason, to, subject, body string) (*models.EmailLog, error) {
	entry := &models.EmailLog{
		ID:        d.opts.newID(),
		To:        to,
		Subject:   subject,
		Message:   body,
		Timestamp: d.opts.clock(),
		Status:    models.DeliverySent,
	}
	if err := d.emails.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("append email log: %w", err)
	}
	metrics.RecordEmail(reason)
	d.logger.Debug("email logged", zap.String("to", to), zap.String("subject", subject))

	d.emit(ctx, EventEmailLogged, entry)
	return entry, nil
}

// emit publishes an integration event; failures are logged only.
func (d *Dispatcher) emit(ctx context.Context, routingKey string, payload any) {
	if err := d.events.Publish(ctx, routingKey, payload); err != nil {
		d.logger.Warn("failed to publish event", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

func (d *Dispatcher) emailableDrivers(ctx context.Context) ([]models.User, error) {
	drivers, err := d.users.ListByRole(ctx, models.RoleDriver)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	out := drivers[:0]
	for _, u := range drivers {
		if u.EmailEnabled() {
			out = append(out, u)
		}
	}
	return out, nil
}
