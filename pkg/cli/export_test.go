package cli

var (
	GetIndexConfig = getIndexConfig
	MigrationSteps = migrationSteps
	PrintStatus    = printStatus
	PrintNotice    = printNotice
)

type MigrationStep = migrationStep
