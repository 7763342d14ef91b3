package config

type WorkerKeyStruct struct {
	SubmittedScoresQueue string
}

var WorkerKey = &WorkerKeyStruct{
	SubmittedScoresQueue: "submitted_scores_queue",
}
