package postgres

const (
	sprintColumns = `id, name, goal, start_date, end_date, status, project_id, created_by,
		retrospective_notes, last_reminder_date, completed_at, created_at, updated_at`

	queryCreateSprint = `insert into sprint_tracker.sprints (` + sprintColumns + `)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	queryGetSprint = `select ` + sprintColumns + ` from sprint_tracker.sprints where id = $1`

	queryGetSprintForUpdate = queryGetSprint + ` for update`

	queryListSprintsByStatus = `select ` + sprintColumns + ` from sprint_tracker.sprints
		where status = any($1) order by start_date, id`

	queryListSprintsByProject = `select ` + sprintColumns + ` from sprint_tracker.sprints
		where project_id = $1 order by start_date, id`

	queryUpdateSprint = `update sprint_tracker.sprints set name = $2, goal = $3, start_date = $4, end_date = $5,
		status = $6, retrospective_notes = $7, last_reminder_date = $8, completed_at = $9, updated_at = $10
		where id = $1`

	queryDeleteSprint = `delete from sprint_tracker.sprints where id = $1`

	taskColumns = `id, code, title, status, assignee_id, sprint_id, story_points, project_id,
		declined_by, decline_reason, declined_at, completed_at, created_at, updated_at`

	queryCreateTask = `insert into sprint_tracker.tasks (` + taskColumns + `)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	queryGetTask = `select ` + taskColumns + ` from sprint_tracker.tasks where id = $1`

	queryGetTaskForUpdate = queryGetTask + ` for update`

	queryListTasksBySprint = `select ` + taskColumns + ` from sprint_tracker.tasks
		where sprint_id = $1 order by created_at, id`

	queryUpdateTask = `update sprint_tracker.tasks set code = $2, title = $3, status = $4, assignee_id = $5,
		sprint_id = $6, story_points = $7, declined_by = $8, decline_reason = $9, declined_at = $10,
		completed_at = $11, updated_at = $12
		where id = $1`

	queryDeleteTask = `delete from sprint_tracker.tasks where id = $1`

	backlogColumns = `id, title, description, priority, priority_rank, story_points, business_value,
		effort_estimate, status, sprint_id, project_id, created_at, updated_at`

	queryCreateBacklogItem = `insert into sprint_tracker.backlog_items (` + backlogColumns + `)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	queryGetBacklogItem = `select ` + backlogColumns + ` from sprint_tracker.backlog_items where id = $1`

	queryListBacklogItemsBySprint = `select ` + backlogColumns + ` from sprint_tracker.backlog_items
		where sprint_id = $1 order by priority * 1000 + priority_rank desc, id`

	queryListProductBacklog = `select ` + backlogColumns + ` from sprint_tracker.backlog_items
		where project_id = $1 and sprint_id is null and status = 'PRODUCT_BACKLOG'
		order by priority * 1000 + priority_rank desc, id`

	queryUpdateBacklogItem = `update sprint_tracker.backlog_items set title = $2, description = $3, priority = $4,
		priority_rank = $5, story_points = $6, business_value = $7, effort_estimate = $8, status = $9,
		sprint_id = $10, updated_at = $11
		where id = $1`

	queryDeleteBacklogItem = `delete from sprint_tracker.backlog_items where id = $1`

	pendingColumns = `id, author_id, message, branch, task_id, committed_at, url, sha, project_id, status,
		reviewer_id, reviewed_at, rejection_reason, merged_at, created_at`

	queryCreatePendingCommit = `insert into sprint_tracker.pending_commits (` + pendingColumns + `)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	queryGetPendingCommit = `select ` + pendingColumns + ` from sprint_tracker.pending_commits where id = $1`

	queryGetPendingCommitForUpdate = queryGetPendingCommit + ` for update`

	queryCountPendingCommitsBySHA = `select count(*) from sprint_tracker.pending_commits where sha = $1`

	queryListPendingCommits = `select ` + pendingColumns + ` from sprint_tracker.pending_commits
		where project_id = $1 and status = $2 order by committed_at, id`

	queryTransitionCommit = `update sprint_tracker.pending_commits set status = $2, reviewer_id = $3,
		reviewed_at = $4, rejection_reason = $5, merged_at = $6
		where id = $1 and status = $7`

	queryPendingCommitExists = `select exists (select 1 from sprint_tracker.pending_commits where id = $1)`

	approvedColumns = `id, pending_commit_id, author_id, message, branch, task_id, committed_at, url, sha,
		project_id, approved_by, approved_at`

	queryCreateApprovedCommit = `insert into sprint_tracker.approved_commits (` + approvedColumns + `)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	queryListApprovedCommits = `select ` + approvedColumns + ` from sprint_tracker.approved_commits
		where project_id = $1 order by approved_at desc, id limit $2`

	queryCommitCountsBySprint = `select pc.status, count(*) from sprint_tracker.pending_commits pc
		join sprint_tracker.tasks t on t.id = pc.task_id
		where t.sprint_id = $1 group by pc.status`
)
