package repository

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"RewardCardPlatform/internal/domain"
	"RewardCardPlatform/internal/store"
)

// decoder читает поля записи и запоминает первую ошибку
type decoder struct {
	rec store.Record
	err error
}

func newDecoder(rec store.Record) *decoder {
	return &decoder{rec: rec}
}

func (d *decoder) fail(field, format string, args ...interface{}) {
	if d.err == nil {
		d.err = fmt.Errorf("field %q: %s", field, fmt.Sprintf(format, args...))
	}
}

func (d *decoder) required(field string) string {
	v := strings.TrimSpace(d.rec[field])
	if v == "" {
		d.fail(field, "missing")
	}
	return v
}

func (d *decoder) optional(field string) string {
	return d.rec[field]
}

func (d *decoder) millis(field string) time.Time {
	raw := d.required(field)
	if raw == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		d.fail(field, "not a millisecond timestamp: %q", raw)
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func (d *decoder) optionalMillis(field string) *time.Time {
	if strings.TrimSpace(d.rec[field]) == "" {
		return nil
	}
	t := d.millis(field)
	return &t
}

func (d *decoder) boolean(field string) bool {
	switch strings.TrimSpace(d.rec[field]) {
	case "", "false", "0":
		return false
	case "true", "1":
		return true
	default:
		d.fail(field, "not a boolean: %q", d.rec[field])
		return false
	}
}

func (d *decoder) integer(field string) int {
	raw := d.required(field)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		d.fail(field, "not an integer: %q", raw)
	}
	return n
}

func (d *decoder) permissions(field string) []domain.Permission {
	raw := strings.TrimSpace(d.rec[field])
	if raw == "" {
		return nil
	}
	var perms []domain.Permission
	if err := json.Unmarshal([]byte(raw), &perms); err != nil {
		d.fail(field, "not a permission list: %v", err)
		return nil
	}
	for _, p := range perms {
		if !p.Valid() {
			d.fail(field, "unknown permission %q", p)
			return nil
		}
	}
	if len(perms) == 0 {
		return nil
	}
	return perms
}

func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

func encodeEmployee(e *domain.Employee) store.Record {
	rec := store.Record{
		"id":             e.ID,
		"name":           e.Name,
		"position":       e.Position,
		"employmentType": string(e.EmploymentType),
		"createdAt":      formatMillis(e.CreatedAt),
		"isLocked":       formatBool(e.IsLocked),
	}
	if e.LockReason != "" {
		rec["lockReason"] = e.LockReason
	}
	return rec
}

func decodeEmployee(rec store.Record) (*domain.Employee, error) {
	d := newDecoder(rec)
	e := &domain.Employee{
		ID:             d.required("id"),
		Name:           d.required("name"),
		Position:       d.optional("position"),
		EmploymentType: domain.EmploymentType(d.required("employmentType")),
		CreatedAt:      d.millis("createdAt"),
		IsLocked:       d.boolean("isLocked"),
		LockReason:     d.optional("lockReason"),
	}
	if d.err == nil && !e.EmploymentType.Valid() {
		d.fail("employmentType", "unknown value %q", e.EmploymentType)
	}
	return e, d.err
}

func encodeCard(c *domain.RewardCard) store.Record {
	rec := store.Record{
		"id":         c.ID,
		"employeeId": c.EmployeeID,
		"cardType":   string(c.CardType),
		"points":     strconv.Itoa(c.Points),
		"issuedAt":   formatMillis(c.IssuedAt),
		"expiresAt":  formatMillis(c.ExpiresAt),
		"isRedeemed": formatBool(c.IsRedeemed),
		"qrCode":     c.QRCode,
	}
	if c.RedeemedAt != nil {
		rec["redeemedAt"] = formatMillis(*c.RedeemedAt)
	}
	for field, value := range map[string]string{
		"approvedBy":   c.ApprovedBy,
		"approverName": c.ApproverName,
		"approverRole": c.ApproverRole,
	} {
		if value != "" {
			rec[field] = value
		}
	}
	return rec
}

func decodeCard(rec store.Record) (*domain.RewardCard, error) {
	d := newDecoder(rec)
	c := &domain.RewardCard{
		ID:           d.required("id"),
		EmployeeID:   d.required("employeeId"),
		CardType:     domain.CardType(d.required("cardType")),
		Points:       d.integer("points"),
		IssuedAt:     d.millis("issuedAt"),
		ExpiresAt:    d.millis("expiresAt"),
		IsRedeemed:   d.boolean("isRedeemed"),
		RedeemedAt:   d.optionalMillis("redeemedAt"),
		ApprovedBy:   d.optional("approvedBy"),
		ApproverName: d.optional("approverName"),
		ApproverRole: d.optional("approverRole"),
		QRCode:       d.optional("qrCode"),
		Revision:     rec.Revision(),
	}
	if d.err == nil {
		switch {
		case !c.CardType.Valid():
			d.fail("cardType", "unknown value %q", c.CardType)
		case c.Points != c.CardType.Points():
			d.fail("points", "%d does not match card type %s", c.Points, c.CardType)
		case c.IsRedeemed && c.RedeemedAt == nil:
			d.fail("redeemedAt", "missing on redeemed card")
		}
	}
	return c, d.err
}

func encodeManager(m *domain.ManagerCard) (store.Record, error) {
	perms := m.Permissions
	if perms == nil {
		perms = []domain.Permission{}
	}
	permsJSON, err := json.Marshal(perms)
	if err != nil {
		return nil, err
	}
	rec := store.Record{
		"id":          m.ID,
		"name":        m.Name,
		"position":    m.Position,
		"role":        string(m.Role),
		"createdAt":   formatMillis(m.CreatedAt),
		"qrCode":      m.QRCode,
		"permissions": string(permsJSON),
	}
	if m.Password != "" {
		rec["password"] = m.Password
	}
	return rec, nil
}

func decodeManager(rec store.Record) (*domain.ManagerCard, error) {
	d := newDecoder(rec)
	m := &domain.ManagerCard{
		ID:          d.required("id"),
		Name:        d.required("name"),
		Position:    d.optional("position"),
		Role:        domain.Role(d.required("role")),
		CreatedAt:   d.millis("createdAt"),
		QRCode:      d.optional("qrCode"),
		Permissions: d.permissions("permissions"),
		Password:    d.optional("password"),
	}
	if d.err == nil && !m.Role.Valid() {
		d.fail("role", "unknown value %q", m.Role)
	}
	return m, d.err
}
