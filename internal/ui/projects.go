package ui

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/highercomve/timesheet/internal/app"
	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/service"
	"github.com/highercomve/timesheet/internal/timesheet"
)

// Projects lists every project, archived ones included, with edit, archive
// and delete actions.
type Projects struct {
	app      *app.App
	window   fyne.Window
	list     *widget.List
	projects []models.Project
}

func NewProjects(a *app.App, w fyne.Window) *Projects {
	return &Projects{app: a, window: w}
}

func (p *Projects) MakeUI() fyne.CanvasObject {
	p.list = widget.NewList(
		func() int { return len(p.projects) },
		func() fyne.CanvasObject {
			swatch := canvas.NewRectangle(theme.Color(theme.ColorNameDisabled))
			swatch.SetMinSize(fyne.NewSize(8, 8))
			return container.NewBorder(nil, nil, swatch,
				container.NewHBox(
					widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), nil),
					widget.NewButtonWithIcon("", theme.VisibilityOffIcon(), nil),
					widget.NewButtonWithIcon("", theme.DeleteIcon(), nil),
				),
				widget.NewLabel("Project"))
		},
		func(i int, o fyne.CanvasObject) {
			proj := p.projects[i]
			box := o.(*fyne.Container)
			label := box.Objects[0].(*widget.Label)
			swatch := box.Objects[1].(*canvas.Rectangle)
			buttons := box.Objects[2].(*fyne.Container)

			text := strings.TrimSpace(proj.Icon+" "+proj.Name) + "  ·  " + p.app.Store.CategoryLabel(proj.CategoryID)
			if proj.Archived {
				text += " (archived)"
			}
			label.SetText(text)
			swatch.FillColor = parseHexColor(proj.Color)
			swatch.Refresh()

			buttons.Objects[0].(*widget.Button).OnTapped = func() { p.showProjectDialog(proj) }
			archive := buttons.Objects[1].(*widget.Button)
			if proj.Archived {
				archive.SetIcon(theme.VisibilityIcon())
			} else {
				archive.SetIcon(theme.VisibilityOffIcon())
			}
			archive.OnTapped = func() {
				p.apply(timesheet.ArchiveProject{ID: proj.ID, Archived: !proj.Archived})
			}
			buttons.Objects[2].(*widget.Button).OnTapped = func() {
				dialog.ShowConfirm("Delete project", "Records of "+proj.Name+" are kept but lose their project.", func(ok bool) {
					if ok {
						p.apply(timesheet.DeleteProject{ID: proj.ID})
					}
				}, p.window)
			}
		},
	)

	p.app.Store.Subscribe(func(timesheet.Event) {
		fyne.Do(p.refresh)
	})
	p.refresh()

	return container.NewBorder(
		container.NewHBox(
			widget.NewButtonWithIcon("Add project", theme.ContentAddIcon(), func() {
				p.showProjectDialog(models.Project{})
			}),
			widget.NewButtonWithIcon("Add category", theme.FolderNewIcon(), p.showCategoryDialog),
		),
		nil, nil, nil,
		p.list,
	)
}

func (p *Projects) refresh() {
	p.projects = service.SortProjects(p.app.Store.Snapshot(), p.app.Store.Projects(true), p.app.Settings.SortMode)
	p.list.Refresh()
}

func (p *Projects) apply(cmd timesheet.Command) {
	if _, err := p.app.Store.Apply(cmd); err != nil {
		dialog.ShowError(err, p.window)
	}
}

// categoryChoice lists active categories by name, Uncategorized first.
func (p *Projects) categoryChoice() ([]string, map[string]int) {
	labels := []string{models.DefaultCategoryName}
	ids := map[string]int{models.DefaultCategoryName: models.Uncategorized}
	for _, c := range p.app.Store.Categories(false) {
		if _, ok := ids[c.Name]; ok {
			continue
		}
		labels = append(labels, c.Name)
		ids[c.Name] = c.ID
	}
	return labels, ids
}

// showProjectDialog edits proj, or adds a project when proj.ID is zero.
func (p *Projects) showProjectDialog(proj models.Project) {
	name := widget.NewEntry()
	name.SetText(proj.Name)
	icon := widget.NewEntry()
	icon.SetText(proj.Icon)
	icon.SetPlaceHolder(models.DefaultProjectIcon)
	color := widget.NewEntry()
	color.SetText(proj.Color)
	color.SetPlaceHolder(models.DefaultProjectColor)

	labels, ids := p.categoryChoice()
	category := widget.NewSelect(labels, nil)
	category.SetSelected(models.DefaultCategoryName)
	for label, id := range ids {
		if id == proj.CategoryID {
			category.SetSelected(label)
		}
	}

	heading := "Edit project"
	if proj.ID == 0 {
		heading = "Add project"
	}
	dialog.ShowForm(heading, "Save", "Cancel", []*widget.FormItem{
		widget.NewFormItem("Name", name),
		widget.NewFormItem("Icon", icon),
		widget.NewFormItem("Color", color),
		widget.NewFormItem("Category", category),
	}, func(ok bool) {
		if !ok {
			return
		}
		catID := ids[category.Selected]
		if proj.ID == 0 {
			p.apply(timesheet.AddProject{Name: name.Text, Icon: icon.Text, Color: color.Text, CategoryID: catID})
			return
		}
		p.apply(timesheet.EditProject{ID: proj.ID, Name: &name.Text, Icon: &icon.Text, Color: &color.Text, CategoryID: &catID})
	}, p.window)
}

func (p *Projects) showCategoryDialog() {
	name := widget.NewEntry()
	color := widget.NewEntry()
	color.SetPlaceHolder(models.DefaultCategoryColor)
	dialog.ShowForm("Add category", "Save", "Cancel", []*widget.FormItem{
		widget.NewFormItem("Name", name),
		widget.NewFormItem("Color", color),
	}, func(ok bool) {
		if ok {
			p.apply(timesheet.AddCategory{Name: name.Text, Color: color.Text})
		}
	}, p.window)
}
