package repository

import "strings"

// Collection names of the project tree and the flat record collection.
const (
	CollectionProjects   = "projects"
	CollectionStudyAreas = "studyAreas"
	CollectionStratUnits = "stratUnits"
	CollectionContainers = "containers"
	CollectionGroups     = "groups"
	CollectionObjects    = "objects"
	CollectionUniversal  = "universal"
)

const pathSeparator = "/"

// CollectionPath joins path segments into a slash-separated collection path.
// Empty segments are dropped.
func CollectionPath(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.Trim(seg, pathSeparator)
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, pathSeparator)
}

// DocumentPath returns the path of document id inside a collection.
func DocumentPath(collectionPath, id string) string {
	return CollectionPath(collectionPath, id)
}

// SplitDocumentPath splits a document path into its collection path and id.
// ok is false when the path has an even number of segments, which names a
// collection rather than a document.
func SplitDocumentPath(path string) (collectionPath, id string, ok bool) {
	path = strings.Trim(path, pathSeparator)
	segments := strings.Split(path, pathSeparator)
	if path == "" || len(segments)%2 != 0 {
		return "", "", false
	}
	return strings.Join(segments[:len(segments)-1], pathSeparator), segments[len(segments)-1], true
}

// StudyAreasPath is projects/{project}/studyAreas.
func StudyAreasPath(projectID string) string {
	return CollectionPath(CollectionProjects, projectID, CollectionStudyAreas)
}

// StratUnitsPath is .../studyAreas/{studyArea}/stratUnits.
func StratUnitsPath(projectID, studyAreaID string) string {
	return CollectionPath(StudyAreasPath(projectID), studyAreaID, CollectionStratUnits)
}

// ContainersPath is .../stratUnits/{stratUnit}/containers.
func ContainersPath(projectID, studyAreaID, stratUnitID string) string {
	return CollectionPath(StratUnitsPath(projectID, studyAreaID), stratUnitID, CollectionContainers)
}

// GroupsPath is .../containers/{container}/groups.
func GroupsPath(projectID, studyAreaID, stratUnitID, containerID string) string {
	return CollectionPath(ContainersPath(projectID, studyAreaID, stratUnitID), containerID, CollectionGroups)
}

// ObjectsPath is .../groups/{group}/objects.
func ObjectsPath(projectID, studyAreaID, stratUnitID, containerID, groupID string) string {
	return CollectionPath(GroupsPath(projectID, studyAreaID, stratUnitID, containerID), groupID, CollectionObjects)
}
