package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jfuruness/mrt-collector/internal/incident"
	"github.com/jfuruness/mrt-collector/internal/roa"
)

// loadROAFile reads a ROA snapshot in CSV form: prefix,origin,max_length
// per line (spec.md §6's ROA feed external interface).
func loadROAFile(path string, store *roa.Store) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load roa file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 3 {
			continue
		}
		maxLen, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			continue
		}
		if err := store.Insert(strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1]), maxLen); err != nil {
			continue
		}
	}
	return scanner.Err()
}

// loadIncidentFile reads an incident feed snapshot: one row per line,
// CSV with a leading type discriminator ("hijack", "leak", "outage")
// followed by that type's fields (spec.md §6, §4.5.4).
func loadIncidentFile(path string, store *incident.Store) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load incident file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "hijack":
			// hijack,prefix,attacker,victim
			if len(fields) != 4 {
				continue
			}
			store.AddHijackOrLeak(fields[1], fields[2], incident.Row{
				HijackVictim:   fields[3],
				HijackAttacker: fields[2],
			})
		case "leak":
			// leak,prefix,origin,leaker,leaked_to
			if len(fields) != 5 {
				continue
			}
			store.AddHijackOrLeak(fields[1], fields[2], incident.Row{
				LeakPrefix:   fields[1],
				LeakLeaker:   fields[3],
				LeakLeakedTo: fields[4],
			})
		case "outage":
			// outage,origin_asn
			if len(fields) != 2 {
				continue
			}
			store.AddOutage(fields[1], incident.Row{OutageASN: fields[1]})
		}
	}
	return scanner.Err()
}
