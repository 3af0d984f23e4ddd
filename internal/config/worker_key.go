package config

type WorkerKeyStruct struct {
	ViolationQueue  string
	LevelScoreQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ViolationQueue:  "ingest_violations_queue",
	LevelScoreQueue: "recalc_level_scores_queue",
}
