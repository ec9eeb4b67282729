package domain

// DedupeTemplates collapses template entries that share a key, keeping the
// first occurrence. Both the create and edit flows must derive tasks from the
// same deduplicated list, so this is the single place that implements it.
func DedupeTemplates(entries []TaskTemplateEntry) []TaskTemplateEntry {
	seen := make(map[string]bool, len(entries))
	out := make([]TaskTemplateEntry, 0, len(entries))
	for _, e := range entries {
		if seen[e.Key] {
			continue
		}
		seen[e.Key] = true
		out = append(out, e)
	}
	return out
}

// TasksFromTemplates seeds one Task per unique template entry. User and form
// are left blank for the tasks step to fill in; every task starts enabled.
func TasksFromTemplates(entries []TaskTemplateEntry) []Task {
	unique := DedupeTemplates(entries)
	tasks := make([]Task, 0, len(unique))
	for _, e := range unique {
		tasks = append(tasks, Task{
			TaskName:     e.Summary,
			TaskType:     e.TaskType,
			TmpSubtaskID: e.Key,
			Enabled:      true,
		})
	}
	return tasks
}
