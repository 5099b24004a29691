// Package export renders a user's task list as an XML document.
package export

import (
	"fmt"
	"strconv"

	"github.com/DKhorkov/FastApi/internal/models"
	"github.com/beevik/etree"
)

// TasksXML builds
//
//	<tasks owner="alice" total="2" completed="1">
//	  <task id="1" complete="true">buy milk</task>
//	</tasks>
func TasksXML(owner *models.User, tasks []models.Task) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("tasks")
	root.CreateAttr("owner", owner.Username)

	completed := 0
	for _, t := range tasks {
		if t.UserID != owner.ID {
			return nil, fmt.Errorf("task %d does not belong to user %d", t.ID, owner.ID)
		}
		el := root.CreateElement("task")
		el.CreateAttr("id", strconv.FormatInt(t.ID, 10))
		el.CreateAttr("complete", strconv.FormatBool(t.IsComplete))
		el.SetText(t.Title)
		if t.IsComplete {
			completed++
		}
	}
	root.CreateAttr("total", strconv.Itoa(len(tasks)))
	root.CreateAttr("completed", strconv.Itoa(completed))

	doc.Indent(2)
	return doc.WriteToBytes()
}
