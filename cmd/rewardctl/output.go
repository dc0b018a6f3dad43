package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v2"

	"RewardCardPlatform/internal/domain"
	"RewardCardPlatform/internal/service"
)

// Форматы вывода
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

const timeLayout = "2006-01-02 15:04"

// printer выводит результаты команд в выбранном формате
type printer struct {
	out    io.Writer
	format string
}

func newPrinter(out io.Writer, format string) *printer {
	switch format {
	case outputJSON, outputYAML:
	default:
		format = outputText
	}
	return &printer{out: out, format: format}
}

// structured выводит v как JSON или YAML; false для текстового формата
func (p *printer) structured(v interface{}) (bool, error) {
	switch p.format {
	case outputJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case outputYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return true, err
		}
		_, err = p.out.Write(data)
		return true, err
	}
	return false, nil
}

func (p *printer) message(format string, args ...interface{}) {
	if p.format != outputText {
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) whoami(v whoamiView) error {
	if done, err := p.structured(v); done {
		return err
	}
	if !v.LoggedIn {
		if v.State == "expired" {
			fmt.Fprintln(p.out, "A munkamenet inaktivitás miatt lejárt")
			return nil
		}
		fmt.Fprintln(p.out, "Nincs bejelentkezve")
		return nil
	}

	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", v.ID)
	fmt.Fprintf(w, "Name:\t%s\n", v.Name)
	fmt.Fprintf(w, "Role:\t%s\n", v.Role)
	fmt.Fprintf(w, "Admin:\t%t\n", v.Admin)
	fmt.Fprintf(w, "Permissions:\t%s\n", joinPermissions(v.Permissions))
	fmt.Fprintf(w, "Remaining:\t%s\n", v.Remaining)
	return w.Flush()
}

func (p *printer) card(c *domain.RewardCard) error {
	if done, err := p.structured(c); done {
		return err
	}
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Card:\t%s\n", c.ID)
	fmt.Fprintf(w, "Employee:\t%s\n", c.EmployeeID)
	fmt.Fprintf(w, "Type:\t%s (%d pt)\n", c.CardType, c.Points)
	fmt.Fprintf(w, "Issued:\t%s\n", c.IssuedAt.Local().Format(timeLayout))
	fmt.Fprintf(w, "Expires:\t%s\n", c.ExpiresAt.Local().Format(timeLayout))
	if c.IsRedeemed && c.RedeemedAt != nil {
		fmt.Fprintf(w, "Redeemed:\t%s\n", c.RedeemedAt.Local().Format(timeLayout))
	}
	if c.ApproverName != "" {
		fmt.Fprintf(w, "Approver:\t%s (%s)\n", c.ApproverName, c.ApproverRole)
	}
	return w.Flush()
}

func (p *printer) summary(s *service.Summary) error {
	if done, err := p.structured(s); done {
		return err
	}
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Employees:\t%d\n", s.TotalEmployees)
	fmt.Fprintf(w, "Active cards:\t%d\n", s.ActiveCards)
	fmt.Fprintf(w, "Expiring soon:\t%d\n", s.ExpiringSoon)
	fmt.Fprintf(w, "Expired cards:\t%d\n", s.ExpiredCards)
	fmt.Fprintf(w, "Redeemed cards:\t%d\n", s.RedeemedCards)
	fmt.Fprintf(w, "Active points:\t%d\n", s.ActivePoints)
	return w.Flush()
}

func joinPermissions(perms []domain.Permission) string {
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
