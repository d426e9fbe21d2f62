// ABOUTME: Task queue CLI commands
// ABOUTME: Lists queued and failed tasks and requeues failed ones
package cli

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

// ListTasksCommand lists tasks in a status.
func ListTasksCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	status := fs.String("status", string(models.TaskPending), "Task status (pending, in_progress, failed)")
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	tasks, err := db.NewTaskRepository(database).ListByStatus(context.Background(), models.TaskStatus(*status), *limit)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Printf("No %s tasks\n", *status)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TYPE\tPRIORITY\tSCHEDULED\tATTEMPTS\tPROSPECT\tERROR\tID")
	_, _ = fmt.Fprintln(w, "----\t--------\t---------\t--------\t--------\t-----\t--")
	for _, t := range tasks {
		errText := t.Error
		if errText == "" {
			errText = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\t%s\t%s\n",
			t.Type, t.Priority, t.ScheduledFor.Local().Format("2006-01-02 15:04"), t.Attempts,
			t.ProspectID, truncate(errText, 50), t.ID)
	}
	return w.Flush()
}

// RetryTaskCommand returns a failed task to the queue.
func RetryTaskCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("retry", flag.ExitOnError)
	delay := fs.Duration("delay", 0, "Wait before the retry runs")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("task ID is required")
	}
	id := fs.Arg(0)

	at := time.Now().UTC().Add(*delay)
	if err := db.NewTaskRepository(database).Retry(context.Background(), id, at); err != nil {
		if errors.Is(err, db.ErrTaskNotFound) {
			return fmt.Errorf("no failed task %s", id)
		}
		return err
	}
	fmt.Printf("✓ Task %s requeued for %s\n", id, at.Local().Format("2006-01-02 15:04"))
	return nil
}
